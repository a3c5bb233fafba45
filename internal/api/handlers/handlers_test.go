package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haeli05/yields.to/internal/aggregator"
	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/models"
	"github.com/haeli05/yields.to/internal/sources/sumcap"
)

func testLogger() *logger.Logger {
	return logger.New("error")
}

func TestCheckCronSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		query  string
		want   bool
	}{
		{"valid header", "s3cret", "s3cret", "", true},
		{"valid query", "s3cret", "", "s3cret", true},
		{"wrong header", "s3cret", "nope", "", false},
		{"wrong query", "s3cret", "", "nope", false},
		{"no credentials", "s3cret", "", "", false},
		// Порожній серверний секрет означає відмову всім
		{"empty server secret", "", "", "", false},
		{"empty server secret ignores query", "", "", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "/aggregate/sync"
			if tt.query != "" {
				url += "?secret=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set("X-Cron-Secret", tt.header)
			}

			if got := checkCronSecret(req, tt.secret); got != tt.want {
				t.Errorf("checkCronSecret = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregateSyncUnauthorized(t *testing.T) {
	handler := NewAggregateHandler(&aggregator.Job{}, "s3cret", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/aggregate/sync", nil)
	rec := httptest.NewRecorder()

	handler.Sync(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Unauthorized" {
		t.Errorf("error = %q", body["error"])
	}
}

// mockProjectRepo записує заявки в пам'ять
type mockProjectRepo struct {
	created []models.ProjectSubmission
	err     error
}

func (m *mockProjectRepo) Create(submission *models.ProjectSubmission) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, *submission)
	return nil
}

func (m *mockProjectRepo) GetAll(limit, offset int) ([]models.ProjectSubmission, error) {
	return m.created, nil
}

func submitBody() string {
	return `{
		"projectName": "New Vault",
		"protocolName": "Vault Protocol",
		"website": "https://vault.example.com",
		"contactEmail": "team@vault.example.com",
		"description": "Stablecoin vault on Plasma"
	}`
}

func TestProjectSubmit(t *testing.T) {
	repo := &mockProjectRepo{}
	handler := NewProjectHandler(repo, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/submit-project", strings.NewReader(submitBody()))
	rec := httptest.NewRecorder()

	handler.Submit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(repo.created) != 1 {
		t.Fatalf("збережено %d заявок, want 1", len(repo.created))
	}
	if repo.created[0].ProjectName != "New Vault" {
		t.Errorf("projectName = %q", repo.created[0].ProjectName)
	}
}

func TestProjectSubmitValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", "{not json", http.StatusBadRequest},
		{"missing fields", `{"projectName": "x"}`, http.StatusBadRequest},
		{"complete", submitBody(), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewProjectHandler(&mockProjectRepo{}, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/submit-project", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.Submit(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestProjectSubmitStorageFailureIsSilent(t *testing.T) {
	// Падіння сховища не віддається користувачу
	handler := NewProjectHandler(&mockProjectRepo{err: errors.New("db down")}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/submit-project", strings.NewReader(submitBody()))
	rec := httptest.NewRecorder()

	handler.Submit(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestProjectSubmitWithoutStorage(t *testing.T) {
	handler := NewProjectHandler(nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/submit-project", strings.NewReader(submitBody()))
	rec := httptest.NewRecorder()

	handler.Submit(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// mockSumcapRepo записує знімки endpoints у пам'ять
type mockSumcapRepo struct {
	rows []models.EndpointSnapshot
}

func (m *mockSumcapRepo) UpsertSnapshots(snapshots []models.EndpointSnapshot) error {
	m.rows = append(m.rows, snapshots...)
	return nil
}

func (m *mockSumcapRepo) GetSnapshotsAt(time.Time) ([]models.EndpointSnapshot, error) {
	return m.rows, nil
}

func (m *mockSumcapRepo) GetLatestByEndpoint(string) (*models.EndpointSnapshot, error) {
	return nil, nil
}

func TestSumcapSyncUnauthorized(t *testing.T) {
	client := sumcap.NewClient("http://localhost:0", testLogger())
	handler := NewSumcapHandler(client, &mockSumcapRepo{}, "s3cret", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sumcap/sync", nil)
	rec := httptest.NewRecorder()

	handler.Sync(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSumcapSyncStorageNotConfigured(t *testing.T) {
	client := sumcap.NewClient("http://localhost:0", testLogger())
	handler := NewSumcapHandler(client, nil, "s3cret", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sumcap/sync?secret=s3cret", nil)
	rec := httptest.NewRecorder()

	handler.Sync(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestChainMetricsPartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users":
			w.Write([]byte(`{"data": [{"day": "2026-08-01", "count": 10}]}`))
		case "/api/transactions":
			w.Write([]byte(`{"data": []}`))
		default:
			http.Error(w, "down", http.StatusBadGateway)
		}
	}))
	defer server.Close()

	client := sumcap.NewClient(server.URL, testLogger())
	handler := NewSumcapHandler(client, nil, "s3cret", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/chain-metrics", nil)
	rec := httptest.NewRecorder()

	handler.ChainMetrics(rec, req)

	// Частковий збій не дає 502
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "s-maxage=1200, stale-while-revalidate=1200" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var data sumcap.MetricsData
	if err := json.NewDecoder(rec.Body).Decode(&data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.Users) != 1 {
		t.Errorf("users = %d, want 1", len(data.Users))
	}
	if len(data.Errors) != 2 {
		t.Errorf("errors = %v, want 2 записи", data.Errors)
	}
}

func TestChainMetricsTotalFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := sumcap.NewClient(server.URL, testLogger())
	handler := NewSumcapHandler(client, nil, "s3cret", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/chain-metrics", nil)
	rec := httptest.NewRecorder()

	handler.ChainMetrics(rec, req)

	// Всі чотири endpoints впали
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
