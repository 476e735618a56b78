package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/lead-api/internal/ads"
	"github.com/sells-group/lead-api/internal/enrich"
	"github.com/sells-group/lead-api/internal/model"
	"github.com/sells-group/lead-api/internal/store"
)

// maxBodyBytes caps request bodies; bulk imports are bounded separately by
// MaxBatchSize.
const maxBodyBytes = 32 << 20

type handlers struct {
	deps Deps
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) listLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.LeadFilter{Category: model.Category(q.Get("category"))}

	switch filter.Category {
	case "", model.CategoryHot, model.CategoryWarm, model.CategoryCold:
	default:
		writeError(w, http.StatusBadRequest, "category must be hot, warm or cold")
		return
	}

	var err error
	if filter.MinScore, err = intParam(q.Get("min_score")); err != nil {
		writeError(w, http.StatusBadRequest, "min_score must be an integer")
		return
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	leads, err := h.deps.Leads.ListLeads(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list leads", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (h *handlers) getLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lead, err := h.deps.Leads.GetLead(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get lead", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *handlers) classifyLead(w http.ResponseWriter, r *http.Request) {
	var lead model.Lead
	if err := decodeBody(w, r, &lead); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid lead: "+err.Error())
		return
	}

	enriched, err := h.deps.Pipeline.Process(r.Context(), lead, true)
	if errors.Is(err, enrich.ErrInvalidLead) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		zap.L().Error("api: classify lead", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, enriched)
}

func (h *handlers) bulkImport(w http.ResponseWriter, r *http.Request) {
	useAI := false
	if v := r.URL.Query().Get("use_ai"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "use_ai must be a boolean")
			return
		}
		useAI = b
	}

	var leads []model.Lead
	if err := decodeBody(w, r, &leads); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "body must be a JSON array of leads: "+err.Error())
		return
	}
	if h.deps.MaxBatchSize > 0 && len(leads) > h.deps.MaxBatchSize {
		writeError(w, http.StatusRequestEntityTooLarge,
			"batch of "+strconv.Itoa(len(leads))+" leads exceeds limit of "+strconv.Itoa(h.deps.MaxBatchSize))
		return
	}

	report, err := h.deps.Pipeline.BulkImport(r.Context(), leads, useAI)
	if err != nil {
		zap.L().Error("api: bulk import", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) adsSegment(w http.ResponseWriter, r *http.Request) {
	var req model.AdCampaignRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid campaign request: "+err.Error())
		return
	}

	plan, err := h.deps.Planner.BuildPlan(req)
	if errors.Is(err, ads.ErrInvalidRequest) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		zap.L().Error("api: build ad plan", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.AdSegmentResponse{
		Plan:    plan,
		Preview: h.deps.Planner.BuildPreviews(plan, req),
	})
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
