package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/lead-api/internal/model"
)

// headerAliases maps normalized column names to lead fields.
var headerAliases = map[string]string{
	"name": "name", "nombre": "name", "full_name": "name", "contact": "name", "contacto": "name",
	"email": "email", "e_mail": "email", "mail": "email", "correo": "email",
	"phone": "phone", "telefono": "phone", "tel": "phone", "mobile": "phone", "celular": "phone",
	"company": "company", "empresa": "company", "organization": "company", "organizacion": "company",
	"job_title": "job_title", "title": "job_title", "position": "job_title", "cargo": "job_title", "puesto": "job_title",
	"industry": "industry", "industria": "industry", "sector": "industry", "rubro": "industry",
	"country": "country", "pais": "country",
	"city": "city", "ciudad": "city",
	"source": "source", "fuente": "source", "origen": "source", "channel": "source", "canal": "source",
	"budget": "budget", "presupuesto": "budget",
	"company_size": "company_size", "employees": "company_size", "empleados": "company_size", "size": "company_size",
	"message": "message", "mensaje": "message", "notes": "message", "comentarios": "message",
	"interests": "interests", "intereses": "interests",
}

// ReadLeadsFile reads leads from a .csv, .json or .xlsx file. CSV and XLSX
// files need a header row; known English and Spanish column names are
// recognized and unknown columns are ignored.
func ReadLeadsFile(ctx context.Context, path string) ([]model.Lead, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close() //nolint:errcheck

		rows, err := collectRows(StreamCSV(ctx, f, CSVOptions{TrimSpace: true, LazyQuotes: true}))
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: read %s", path)
		}
		return RowsToLeads(rows)

	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close() //nolint:errcheck

		leadCh, errCh := DecodeJSONArray[model.Lead](ctx, f)
		leads := []model.Lead{}
		for l := range leadCh {
			leads = append(leads, l)
		}
		for err := range errCh {
			if err != nil {
				return nil, eris.Wrapf(err, "fetcher: read %s", path)
			}
		}
		return leads, nil

	case ".xlsx":
		rows, err := ReadXLSX(path, XLSXOptions{})
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: read %s", path)
		}
		return RowsToLeads(rows)

	default:
		return nil, eris.Errorf("fetcher: unsupported lead file extension %q", ext)
	}
}

// RowsToLeads maps tabular rows to leads using the first row as the header.
// Blank rows are skipped.
func RowsToLeads(rows [][]string) ([]model.Lead, error) {
	if len(rows) == 0 {
		return nil, eris.New("fetcher: missing header row")
	}

	fields := make([]string, len(rows[0]))
	hasName := false
	for i, h := range rows[0] {
		fields[i] = headerAliases[headerKey(h)]
		hasName = hasName || fields[i] == "name"
	}
	if !hasName {
		return nil, eris.New("fetcher: header has no name column")
	}

	leads := make([]model.Lead, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		var l model.Lead
		for i, cell := range row {
			if i >= len(fields) || fields[i] == "" {
				continue
			}
			if err := setField(&l, fields[i], strings.TrimSpace(cell)); err != nil {
				// Row numbers are 1-based and count the header.
				return nil, eris.Wrapf(err, "fetcher: row %d", n+2)
			}
		}
		leads = append(leads, l)
	}
	return leads, nil
}

func setField(l *model.Lead, field, v string) error {
	switch field {
	case "name":
		l.Name = v
	case "email":
		l.Email = v
	case "phone":
		l.Phone = v
	case "company":
		l.Company = v
	case "job_title":
		l.JobTitle = v
	case "industry":
		l.Industry = v
	case "country":
		l.Country = v
	case "city":
		l.City = v
	case "source":
		l.Source = v
	case "message":
		l.Message = v
	case "interests":
		l.Interests = splitList(v)
	case "budget":
		if v == "" {
			return nil
		}
		b, err := strconv.ParseFloat(cleanNumber(v), 64)
		if err != nil {
			return eris.Errorf("invalid budget %q", v)
		}
		l.Budget = b
	case "company_size":
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(cleanNumber(v))
		if err != nil {
			return eris.Errorf("invalid company_size %q", v)
		}
		l.CompanySize = n
	}
	return nil
}

// headerKey lowercases, strips accents and joins words with underscores.
func headerKey(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, h)
	if err != nil {
		folded = h
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	}), "_")
}

// cleanNumber drops currency symbols, spaces and thousands separators.
func cleanNumber(v string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '$' || r == ',' || r == '€' || unicode.IsSpace(r):
			return -1
		}
		return r
	}, v)
}

func splitList(v string) []string {
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ';' || r == '|' || r == ',' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
