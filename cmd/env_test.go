package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-api/internal/config"
	"github.com/sells-group/lead-api/internal/model"
	"github.com/sells-group/lead-api/internal/scorer"
	"github.com/sells-group/lead-api/internal/store"
)

// useTestConfig points the global cfg at a fresh SQLite file.
func useTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	c := &config.Config{}
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(dir, "leads.db")
	c.Server.Port = 8080
	c.Bulk.MaxWorkers = 2
	c.Bulk.ItemTimeoutSecs = 10
	c.Bulk.MaxBatchSize = 100
	c.Scoring = scorer.DefaultScoringConfig()
	c.Notion.LeadDB = "lead-db"

	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return dir
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	useTestConfig(t)
	cfg.Store.Driver = "mysql"

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver: mysql")
}

func TestInitEnv_SQLite(t *testing.T) {
	useTestConfig(t)

	env, err := initEnv(context.Background())
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Pipeline)
	assert.NotNil(t, env.Planner)
	assert.NotNil(t, newServer(env).Handler)

	leads, err := env.Store.ListLeads(context.Background(), store.LeadFilter{})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestInitExplainer_NoKey(t *testing.T) {
	useTestConfig(t)
	assert.Nil(t, initExplainer())

	cfg.Anthropic.Key = "sk-ant-test"
	assert.NotNil(t, initExplainer())
}

func TestRunFileImport(t *testing.T) {
	dir := useTestConfig(t)
	csv := "nombre,correo,telefono,cargo,empleados\n" +
		"Ana Torres,ana@acme-corp.com,,Directora,120\n" +
		"Luis Gómez,,+54 11 5555 0000,Gerente,30\n" +
		"Sin Contacto,,,,\n"
	path := filepath.Join(dir, "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	env, err := initEnv(context.Background())
	require.NoError(t, err)
	defer env.Close()

	var out bytes.Buffer
	require.NoError(t, runFileImport(context.Background(), env, path, &out))

	var report model.ImportReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Success)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 2, report.Errors[0].Index)
	assert.Contains(t, report.Errors[0].Error, "enrich error: ")

	stored, err := env.Store.ListLeads(context.Background(), store.LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

type fakeNotion struct {
	pages   []notionapi.Page
	updated map[string]string
}

func (f *fakeNotion) QueryDatabase(_ context.Context, _ string, _ *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: f.pages}, nil
}

func (f *fakeNotion) UpdatePage(_ context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	if sp, ok := req.Properties["Status"].(notionapi.StatusProperty); ok {
		f.updated[pageID] = sp.Status.Name
	}
	return &notionapi.Page{}, nil
}

func notionLeadPage(id, name, email string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			"Name":  &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: name}}},
			"Email": &notionapi.EmailProperty{Email: email},
		},
	}
}

func TestRunNotionImport(t *testing.T) {
	useTestConfig(t)

	env, err := initEnv(context.Background())
	require.NoError(t, err)
	defer env.Close()

	nc := &fakeNotion{
		pages: []notionapi.Page{
			notionLeadPage("p1", "Ana", "ana@acme-corp.com"),
			notionLeadPage("p2", "", "nobody@acme-corp.com"),
		},
		updated: map[string]string{},
	}

	var out bytes.Buffer
	require.NoError(t, runNotionImport(context.Background(), env, nc, &out))

	var report model.ImportReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Success)
	assert.Equal(t, map[string]string{"p1": "Imported", "p2": "Failed"}, nc.updated)
}

func TestLimitLeads(t *testing.T) {
	leads := make([]model.Lead, 5)
	assert.Len(t, limitLeads(leads, 0), 5)
	assert.Len(t, limitLeads(leads, 3), 3)
	assert.Len(t, limitLeads(leads, 10), 5)
}
