// Package enrich derives normalized and inferred fields from raw leads.
package enrich

import (
	"net/mail"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/lead-api/internal/model"
)

// ErrInvalidLead is returned when a lead cannot be enriched.
var ErrInvalidLead = eris.New("invalid lead")

// freeMailDomains are consumer mailbox providers; anything else counts as a
// corporate address.
var freeMailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"hotmail.com":    true,
	"hotmail.es":     true,
	"outlook.com":    true,
	"outlook.es":     true,
	"live.com":       true,
	"msn.com":        true,
	"yahoo.com":      true,
	"yahoo.com.ar":   true,
	"yahoo.es":       true,
	"icloud.com":     true,
	"me.com":         true,
	"aol.com":        true,
	"proton.me":      true,
	"protonmail.com": true,
	"gmx.com":        true,
	"mail.com":       true,
}

// seniorityKeywords are matched against the folded job title, first match wins.
var seniorityKeywords = []struct {
	level    model.Seniority
	keywords []string
}{
	{model.SeniorityCLevel, []string{"ceo", "cto", "cfo", "coo", "cmo", "founder", "fundador", "fundadora", "owner", "dueno", "duena", "propietario", "propietaria", "president", "presidente", "presidenta", "socio", "socia", "partner"}},
	{model.SeniorityDirector, []string{"director", "directora", "vp", "vice president", "vicepresidente", "head of", "jefe de", "gerente general"}},
	{model.SeniorityManager, []string{"manager", "gerente", "lead", "lider", "supervisor", "coordinador", "coordinator", "responsable"}},
}

// intentKeywords signal purchase intent in free text.
var intentKeywords = []string{
	"precio", "precios", "cotizacion", "presupuesto", "comprar", "contratar", "demo", "urgente",
	"price", "pricing", "quote", "buy", "purchase", "trial", "urgent", "asap",
}

// Enricher normalizes raw leads and derives scoring inputs.
type Enricher struct {
	now   func() time.Time
	newID func() string
}

// New returns an Enricher using the wall clock and random UUIDs.
func New() *Enricher {
	return &Enricher{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Enrich validates the lead and returns a new EnrichedLead. The input is not
// modified. Safe for concurrent use.
func (e *Enricher) Enrich(lead model.Lead) (*model.EnrichedLead, error) {
	l := normalize(lead)
	// Casers carry state, so each call gets its own.
	l.Name = cases.Title(language.Und).String(strings.ToLower(l.Name))

	if l.Name == "" {
		return nil, eris.Wrap(ErrInvalidLead, "enrich: name is required")
	}
	if l.Email == "" && l.Phone == "" {
		return nil, eris.Wrap(ErrInvalidLead, "enrich: email or phone is required")
	}
	if l.Budget < 0 {
		return nil, eris.Wrap(ErrInvalidLead, "enrich: budget must be >= 0")
	}
	if l.CompanySize < 0 {
		return nil, eris.Wrap(ErrInvalidLead, "enrich: company_size must be >= 0")
	}

	out := &model.EnrichedLead{
		Lead:              l,
		ID:                e.newID(),
		Seniority:         seniorityOf(l.JobTitle),
		CompanySizeBucket: sizeBucket(l.CompanySize),
		BudgetTier:        budgetTier(l.Budget),
		IntentSignals:     intentSignals(l.Message, l.Interests),
		SourceChannel:     sourceChannel(l.Source),
		EnrichedAt:        e.now().UTC(),
	}

	if l.Email != "" {
		domain, err := emailDomain(l.Email)
		if err != nil {
			return nil, err
		}
		out.EmailDomain = domain
		out.CorporateEmail = !freeMailDomains[domain]
	}

	out.PhoneDigits = phoneDigits(l.Phone)
	out.HasPhone = len(strings.TrimPrefix(out.PhoneDigits, "+")) >= 7

	return out, nil
}

func normalize(l model.Lead) model.Lead {
	l.Name = strings.Join(strings.Fields(l.Name), " ")
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	l.Phone = strings.TrimSpace(l.Phone)
	l.Company = strings.TrimSpace(l.Company)
	l.JobTitle = strings.TrimSpace(l.JobTitle)
	l.Industry = strings.TrimSpace(l.Industry)
	l.Country = strings.TrimSpace(l.Country)
	l.City = strings.TrimSpace(l.City)
	l.Source = strings.TrimSpace(l.Source)
	l.Message = strings.TrimSpace(l.Message)

	interests := make([]string, 0, len(l.Interests))
	for _, in := range l.Interests {
		if in = strings.TrimSpace(in); in != "" {
			interests = append(interests, in)
		}
	}
	l.Interests = interests
	return l
}

func emailDomain(email string) (string, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", eris.Wrapf(ErrInvalidLead, "enrich: malformed email %q", email)
	}
	at := strings.LastIndexByte(addr.Address, '@')
	domain := addr.Address[at+1:]
	if !strings.Contains(domain, ".") {
		return "", eris.Wrapf(ErrInvalidLead, "enrich: malformed email %q", email)
	}
	return domain, nil
}

func phoneDigits(phone string) string {
	var b strings.Builder
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fold lowercases s and strips diacritics so "Dueño" matches "dueno".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// containsWord reports whether kw appears in text on word boundaries.
func containsWord(text, kw string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], kw)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(kw)
		before := start == 0 || !isWordByte(text[start-1])
		after := end == len(text) || !isWordByte(text[end])
		if before && after {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

func seniorityOf(title string) model.Seniority {
	if title == "" {
		return model.SeniorityUnknown
	}
	t := fold(title)
	for _, s := range seniorityKeywords {
		for _, kw := range s.keywords {
			if containsWord(t, kw) {
				return s.level
			}
		}
	}
	return model.SeniorityIndividual
}

func sizeBucket(employees int) model.SizeBucket {
	switch {
	case employees <= 0:
		return model.SizeUnknown
	case employees < 10:
		return model.SizeMicro
	case employees < 50:
		return model.SizeSmall
	case employees < 250:
		return model.SizeMedium
	case employees < 1000:
		return model.SizeLarge
	default:
		return model.SizeEnterprise
	}
}

func budgetTier(budget float64) model.BudgetTier {
	switch {
	case budget <= 0:
		return model.BudgetNone
	case budget < 1000:
		return model.BudgetLow
	case budget < 10000:
		return model.BudgetMid
	default:
		return model.BudgetHigh
	}
}

func intentSignals(message string, interests []string) []string {
	text := fold(message + " " + strings.Join(interests, " "))
	signals := []string{}
	for _, kw := range intentKeywords {
		if containsWord(text, kw) && !slices.Contains(signals, kw) {
			signals = append(signals, kw)
		}
	}
	return signals
}

func sourceChannel(source string) model.SourceChannel {
	s := fold(source)
	switch {
	case s == "":
		return model.SourceOther
	case strings.Contains(s, "referr") || strings.Contains(s, "referido") || strings.Contains(s, "recomend"):
		return model.SourceReferral
	case containsWord(s, "ads") || strings.Contains(s, "paid") || strings.Contains(s, "cpc") ||
		strings.Contains(s, "pago") || strings.Contains(s, "campaign") || strings.Contains(s, "campana"):
		return model.SourcePaid
	case strings.Contains(s, "event") || strings.Contains(s, "evento") || strings.Contains(s, "feria") ||
		strings.Contains(s, "webinar"):
		return model.SourceEvent
	case strings.Contains(s, "organic") || strings.Contains(s, "organico") || strings.Contains(s, "web") ||
		strings.Contains(s, "seo") || strings.Contains(s, "form") || strings.Contains(s, "blog"):
		return model.SourceOrganic
	default:
		return model.SourceOther
	}
}
