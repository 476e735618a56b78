package notion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-api/internal/model"
)

func rt(s string) []notionapi.RichText {
	return []notionapi.RichText{{PlainText: s}}
}

func makeLeadPage(id string) notionapi.Page {
	props := notionapi.Properties{
		"Name": &notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: rt(" Ana Torres "),
		},
		"Email": &notionapi.EmailProperty{
			Type:  notionapi.PropertyTypeEmail,
			Email: "ana@acme.io",
		},
		"Phone": &notionapi.PhoneNumberProperty{
			Type:        notionapi.PropertyTypePhoneNumber,
			PhoneNumber: "+54 11 5555 0000",
		},
		"Company": &notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: rt("Acme"),
		},
		"Job Title": &notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: rt("Directora de Marketing"),
		},
		"Industry": &notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: "SaaS"},
		},
		"Country": &notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: rt("Argentina"),
		},
		"Source": &notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: "referral"},
		},
		"Budget": &notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: 12000,
		},
		"Company Size": &notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: 120,
		},
		"Interests": &notionapi.MultiSelectProperty{
			Type:        notionapi.PropertyTypeMultiSelect,
			MultiSelect: []notionapi.Option{{Name: "crm"}, {Name: " "}, {Name: "ads"}},
		},
	}
	return notionapi.Page{ID: notionapi.ObjectID(id), Properties: props}
}

func TestPageToLead(t *testing.T) {
	l := PageToLead(makeLeadPage("p1"))

	assert.Equal(t, "Ana Torres", l.Name)
	assert.Equal(t, "ana@acme.io", l.Email)
	assert.Equal(t, "+54 11 5555 0000", l.Phone)
	assert.Equal(t, "Acme", l.Company)
	assert.Equal(t, "Directora de Marketing", l.JobTitle)
	assert.Equal(t, "SaaS", l.Industry)
	assert.Equal(t, "Argentina", l.Country)
	assert.Equal(t, "referral", l.Source)
	assert.InDelta(t, 12000.0, l.Budget, 0.001)
	assert.Equal(t, 120, l.CompanySize)
	assert.Equal(t, []string{"crm", "ads"}, l.Interests)
	assert.Empty(t, l.City)
	assert.Empty(t, l.Message)
}

func TestPageToLead_EmailAsRichText(t *testing.T) {
	page := notionapi.Page{Properties: notionapi.Properties{
		"Email": &notionapi.RichTextProperty{RichText: rt("x@y.com")},
	}}
	assert.Equal(t, "x@y.com", PageToLead(page).Email)
}

func TestPageToLead_Empty(t *testing.T) {
	l := PageToLead(notionapi.Page{})
	assert.Equal(t, model.Lead{}, l)
}

func TestMarkImportResults(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	report := model.NewImportReport()
	report.RecordSuccess()
	report.RecordFailure(1, "persist error: "+strings.Repeat("x", 300))

	mc.On("UpdatePage", ctx, "page-0", mock.MatchedBy(func(req *notionapi.PageUpdateRequest) bool {
		sp, ok := req.Properties["Status"].(notionapi.StatusProperty)
		_, hasErr := req.Properties["Import Error"]
		_, hasDate := req.Properties["Last Imported"]
		return ok && sp.Status.Name == StatusImported && !hasErr && hasDate
	})).Return(&notionapi.Page{}, nil).Once()

	mc.On("UpdatePage", ctx, "page-1", mock.MatchedBy(func(req *notionapi.PageUpdateRequest) bool {
		sp, ok := req.Properties["Status"].(notionapi.StatusProperty)
		if !ok || sp.Status.Name != StatusFailed {
			return false
		}
		ep, ok := req.Properties["Import Error"].(notionapi.RichTextProperty)
		if !ok || len(ep.RichText) != 1 {
			return false
		}
		msg := ep.RichText[0].Text.Content
		return len([]rune(msg)) == maxErrorLen && strings.HasPrefix(msg, "persist error: ")
	})).Return(&notionapi.Page{}, nil).Once()

	err := MarkImportResults(ctx, mc, []string{"page-0", "page-1"}, report)
	require.NoError(t, err)
	mc.AssertExpectations(t)
}

func TestMarkImportResults_UpdateFailure(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	report := model.NewImportReport()
	report.RecordSuccess()
	report.RecordSuccess()

	mc.On("UpdatePage", ctx, "page-0", mock.Anything).Return(nil, errors.New("rate limited")).Once()
	mc.On("UpdatePage", ctx, "page-1", mock.Anything).Return(&notionapi.Page{}, nil).Once()

	err := MarkImportResults(ctx, mc, []string{"page-0", "page-1"}, report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 page updates failed")
	mc.AssertExpectations(t)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "ñá", truncate("ñáé", 2))
}
