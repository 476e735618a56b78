package model

// ImportError records the failure of one input position in a bulk import.
type ImportError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// ImportReport summarizes a bulk import. Errors is unordered.
type ImportReport struct {
	Processed int           `json:"processed"`
	Success   int           `json:"success"`
	Failed    int           `json:"failed"`
	Errors    []ImportError `json:"errors"`
}

// NewImportReport returns an empty report whose Errors marshals as [].
func NewImportReport() *ImportReport {
	return &ImportReport{Errors: []ImportError{}}
}

// RecordSuccess counts one successful position.
func (r *ImportReport) RecordSuccess() {
	r.Processed++
	r.Success++
}

// RecordFailure counts one failed position.
func (r *ImportReport) RecordFailure(index int, msg string) {
	r.Processed++
	r.Failed++
	r.Errors = append(r.Errors, ImportError{Index: index, Error: msg})
}

// Balanced reports whether the counters agree with each other and with n.
func (r *ImportReport) Balanced(n int) bool {
	return r.Processed == n &&
		r.Success+r.Failed == r.Processed &&
		len(r.Errors) == r.Failed
}
