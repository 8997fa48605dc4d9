package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"leaddesk/models"
)

type recordingObserver struct {
	events []string
}

func (r *recordingObserver) ObserveLeadOperation(operation, outcome string) {
	r.events = append(r.events, operation+":"+outcome)
}

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	observer *recordingObserver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.MigrateLeads(db))

	log := logrus.New()
	log.SetOutput(io.Discard)

	observer := &recordingObserver{}
	lc := NewLeadController(db, log, observer)

	app := fiber.New()
	leads := app.Group("/leads")
	leads.Get("/", lc.GetLeads)
	leads.Post("/", lc.CreateLead)
	leads.Get("/analytics", lc.GetAnalytics)
	leads.Get("/export", lc.ExportLeads)
	leads.Post("/import", lc.ImportLeads)
	leads.Get("/:id<guid>", lc.GetLeadByID)
	leads.Put("/:id<guid>", lc.UpdateLead)
	leads.Delete("/:id<guid>", lc.DeleteLead)
	leads.All("/*", lc.LeadNotFound)

	return &testEnv{app: app, db: db, observer: observer}
}

func (e *testEnv) seed(t *testing.T, leads ...models.Lead) []models.Lead {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range leads {
		leads[i].CreatedAt = base.Add(time.Duration(i) * time.Hour)
		leads[i].UpdatedAt = leads[i].CreatedAt
		require.NoError(t, e.db.Create(&leads[i]).Error)
	}
	return leads
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func sampleLeads() []models.Lead {
	return []models.Lead{
		{FirstName: "John", LastName: "Smith", Email: "john@acme.com", Phone: "+15550001", Company: "Acme Corp", Stage: models.StageLead, Status: models.StatusActive, Source: models.SourceWebsite, Value: 1000},
		{FirstName: "Jane", LastName: "Doe", Email: "jane@techflow.io", Phone: "+15550002", Company: "TechFlow Inc", Stage: models.StageProspect, Status: models.StatusConverted, Source: models.SourceEmail, Value: 5000},
		{FirstName: "Maria", LastName: "Garcia", Email: "maria@horizon.tech", Phone: "+15550003", Company: "Horizon Tech", Stage: models.StageQualified, Status: models.StatusLost, Source: models.SourcePhone, Value: 250},
		{FirstName: "Sarah", LastName: "Lee", Email: "sarah@apex.dev", Phone: "+15550005", Company: "Apex Digital", Stage: models.StageClosed, Status: models.StatusConverted, Source: models.SourceReferral, Value: 12000},
	}
}
