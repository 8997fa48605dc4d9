package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"leaddesk/middleware"
	"leaddesk/models"
	"leaddesk/utils"
)

const testSecret = "routes-secret"

type stack struct {
	app   *fiber.App
	db    *gorm.DB
	token string
}

func newStack(t *testing.T, rateLimit int) *stack {
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

	reg := prometheus.NewRegistry()
	app := fiber.New()
	SetupRoutes(app, Deps{
		DB:           db,
		Logger:       log,
		JWTSecret:    testSecret,
		RateLimitMax: rateLimit,
		Metrics:      middleware.NewMetrics(reg),
		Gatherer:     reg,
	})

	token, err := utils.GenerateAccessToken(testSecret, "user-1", "ada", time.Hour)
	require.NoError(t, err)
	return &stack{app: app, db: db, token: token}
}

func (s *stack) call(t *testing.T, method, target, body string, auth bool) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func message(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Message
}

func TestHealth(t *testing.T) {
	s := newStack(t, 0)
	resp := s.call(t, "GET", "/health", "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIRequiresToken(t *testing.T) {
	s := newStack(t, 0)
	for _, path := range []string{"/api/leads", "/api/leads/analytics", "/api/leads/" + uuid.NewString()} {
		resp := s.call(t, "GET", path, "", false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.Equal(t, "No token, authorization denied", message(t, resp), path)
	}
}

func TestLeadLifecycle(t *testing.T) {
	s := newStack(t, 0)

	resp := s.call(t, "POST", "/api/leads", `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","phone":"+1555","company":"Acme Corp"}`, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Lead models.Lead `json:"lead"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	id := created.Lead.ID.String()

	resp = s.call(t, "GET", "/api/leads/"+id, "", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.call(t, "PUT", "/api/leads/"+id, `{"status":"Converted"}`, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.call(t, "GET", "/api/leads/analytics", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var a models.LeadAnalytics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&a))
	assert.EqualValues(t, 1, a.TotalLeads)
	assert.EqualValues(t, 1, a.ConvertedLeads)
	assert.Equal(t, 100.0, a.ConversionRate)

	resp = s.call(t, "GET", "/api/leads?search=acme", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Leads []models.Lead `json:"leads"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Leads, 1)
	assert.Equal(t, created.Lead.ID, list.Leads[0].ID)

	resp = s.call(t, "DELETE", "/api/leads/"+id, "", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.call(t, "DELETE", "/api/leads/"+id, "", true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Lead not found", message(t, resp))
}

func TestMalformedIDIsNotFound(t *testing.T) {
	s := newStack(t, 0)
	for _, method := range []string{"GET", "PUT", "DELETE"} {
		resp := s.call(t, method, "/api/leads/abc123", "", true)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, method)
		assert.Equal(t, "Lead not found", message(t, resp), method)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newStack(t, 0)
	resp := s.call(t, "GET", "/nowhere", "", false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "The requested resource was not found", message(t, resp))
}

func TestRateLimit(t *testing.T) {
	s := newStack(t, 2)
	assert.Equal(t, http.StatusOK, s.call(t, "GET", "/api/leads", "", true).StatusCode)
	assert.Equal(t, http.StatusOK, s.call(t, "GET", "/api/leads", "", true).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, s.call(t, "GET", "/api/leads", "", true).StatusCode)
	assert.Equal(t, http.StatusOK, s.call(t, "GET", "/health", "", false).StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newStack(t, 0)
	s.call(t, "GET", "/api/leads", "", true)
	s.call(t, "GET", "/api/leads/"+uuid.NewString(), "", true)

	resp := s.call(t, "GET", "/metrics", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := string(raw)
	assert.Contains(t, body, "leaddesk_http_requests_total")
	assert.Contains(t, body, `leaddesk_leads_operations_total{operation="get",outcome="not_found"} 1`)
	assert.Contains(t, body, `leaddesk_leads_operations_total{operation="list",outcome="ok"} 1`)
}
