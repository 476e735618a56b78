package notion

import (
	"context"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-api/internal/model"
)

const maxErrorLen = 200

// PageToLead maps a lead-queue page to a Lead. Missing or mistyped
// properties are left empty.
func PageToLead(page notionapi.Page) model.Lead {
	p := page.Properties
	l := model.Lead{
		Name:     titleText(p["Name"]),
		Email:    emailText(p["Email"]),
		Phone:    phoneText(p["Phone"]),
		Company:  plainText(p["Company"]),
		JobTitle: plainText(p["Job Title"]),
		Industry: selectText(p["Industry"]),
		Country:  selectText(p["Country"]),
		City:     plainText(p["City"]),
		Source:   selectText(p["Source"]),
		Message:  plainText(p["Message"]),
	}
	if n, ok := p["Budget"].(*notionapi.NumberProperty); ok {
		l.Budget = n.Number
	}
	if n, ok := p["Company Size"].(*notionapi.NumberProperty); ok {
		l.CompanySize = int(n.Number)
	}
	if ms, ok := p["Interests"].(*notionapi.MultiSelectProperty); ok {
		for _, o := range ms.MultiSelect {
			if name := strings.TrimSpace(o.Name); name != "" {
				l.Interests = append(l.Interests, name)
			}
		}
	}
	return l
}

// MarkImportResults sets each page to Imported or Failed according to the
// report. pageIDs[i] is the page that produced input index i. Update
// failures are logged and counted; the returned error summarizes them.
func MarkImportResults(ctx context.Context, c Client, pageIDs []string, report *model.ImportReport) error {
	failures := make(map[int]string, len(report.Errors))
	for _, e := range report.Errors {
		failures[e.Index] = e.Error
	}

	now := notionapi.Date(time.Now())
	var updateErrs int
	for i, pageID := range pageIDs {
		if pageID == "" {
			continue
		}
		props := notionapi.Properties{
			"Status": notionapi.StatusProperty{
				Status: notionapi.Status{Name: StatusImported},
			},
			"Last Imported": notionapi.DateProperty{
				Date: &notionapi.DateObject{Start: &now},
			},
		}
		if msg, failed := failures[i]; failed {
			props["Status"] = notionapi.StatusProperty{
				Status: notionapi.Status{Name: StatusFailed},
			}
			props["Import Error"] = richText(truncate(msg, maxErrorLen))
		}

		if _, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: props}); err != nil {
			if ctx.Err() != nil {
				return eris.Wrap(ctx.Err(), "notion: mark import results")
			}
			updateErrs++
			zap.L().Warn("notion: failed to update lead page",
				zap.String("page_id", pageID),
				zap.Int("index", i),
				zap.Error(err),
			)
		}
	}

	if updateErrs > 0 {
		return eris.Errorf("notion: %d of %d page updates failed", updateErrs, len(pageIDs))
	}
	return nil
}

func richText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		Type: notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{
			{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
		},
	}
}

func joinRichText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		b.WriteString(rt.PlainText)
	}
	return strings.TrimSpace(b.String())
}

func titleText(p notionapi.Property) string {
	if tp, ok := p.(*notionapi.TitleProperty); ok {
		return joinRichText(tp.Title)
	}
	return ""
}

func plainText(p notionapi.Property) string {
	if rtp, ok := p.(*notionapi.RichTextProperty); ok {
		return joinRichText(rtp.RichText)
	}
	return ""
}

func emailText(p notionapi.Property) string {
	if ep, ok := p.(*notionapi.EmailProperty); ok {
		return strings.TrimSpace(ep.Email)
	}
	return plainText(p)
}

func phoneText(p notionapi.Property) string {
	if pp, ok := p.(*notionapi.PhoneNumberProperty); ok {
		return strings.TrimSpace(pp.PhoneNumber)
	}
	return plainText(p)
}

func selectText(p notionapi.Property) string {
	if sp, ok := p.(*notionapi.SelectProperty); ok {
		return strings.TrimSpace(sp.Select.Name)
	}
	return plainText(p)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
