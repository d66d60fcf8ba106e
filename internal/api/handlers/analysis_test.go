package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecoguard/ecoguard/internal/api/middleware"
	"github.com/ecoguard/ecoguard/internal/domain"
	"github.com/ecoguard/ecoguard/internal/services/analysis"
)

func intPtr(v int) *int { return &v }

func testOutcome(userID uuid.UUID) *analysis.Outcome {
	score := 73
	return &analysis.Outcome{
		Result: &domain.AnalysisResult{
			OverallScore: &score,
			CompanyName:  "Acme",
			Domain:       "acme.com",
			Confidence:   domain.ConfidenceHigh,
			Timestamp:    time.Now().UTC(),
		},
		HistoryItem: &domain.HistoryItem{
			ID:          uuid.New(),
			UserID:      userID,
			Domain:      "acme.com",
			CompanyName: "Acme",
			Score:       &score,
		},
		Progress: domain.NewUserProgress(userID),
	}
}

func TestAnalysisHandler_Create(t *testing.T) {
	userID := uuid.New()
	service := &fakeAnalysisService{outcome: testOutcome(userID)}
	handler := NewAnalysisHandler(service, &fakeHistory{}, zap.NewNop())

	req := newAuthedRequest(t, userID, http.MethodPost, "/api/v1/analyses",
		AnalyzeRequest{URL: "https://acme.com"})
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, userID, service.gotUser)
	assert.Equal(t, "https://acme.com", service.gotURL)

	var outcome analysis.Outcome
	env := decodeData(t, rec, &outcome)
	assert.True(t, env.Success)
	require.NotNil(t, outcome.Result)
	require.NotNil(t, outcome.Result.OverallScore)
	assert.Equal(t, 73, *outcome.Result.OverallScore)
	assert.Equal(t, "Acme", outcome.Result.CompanyName)
}

func TestAnalysisHandler_Create_RequiresIdentity(t *testing.T) {
	handler := NewAnalysisHandler(&fakeAnalysisService{}, &fakeHistory{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses",
		strings.NewReader(`{"url":"https://acme.com"}`))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "MISSING_USER_ID", env.Error.Code)
}

func TestAnalysisHandler_Create_RejectsBadURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"relative", "/sustainability"},
		{"bad scheme", "ftp://acme.com"},
		{"no host", "https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAnalysisHandler(&fakeAnalysisService{}, &fakeHistory{}, zap.NewNop())

			req := newAuthedRequest(t, uuid.New(), http.MethodPost, "/api/v1/analyses",
				AnalyzeRequest{URL: tt.url})
			rec := httptest.NewRecorder()
			handler.Create(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAnalysisHandler_Create_RejectsBadJSON(t *testing.T) {
	handler := NewAnalysisHandler(&fakeAnalysisService{}, &fakeHistory{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader("{not json"))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisHandler_Create_ConflictWhenInFlight(t *testing.T) {
	service := &fakeAnalysisService{err: domain.AnalysisInFlightError(uuid.NewString())}
	handler := NewAnalysisHandler(service, &fakeHistory{}, zap.NewNop())

	req := newAuthedRequest(t, uuid.New(), http.MethodPost, "/api/v1/analyses",
		AnalyzeRequest{URL: "https://acme.com"})
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, domain.ErrCodeAnalysisInFlight, env.Error.Code)
}

func TestAnalysisHandler_Create_ScrapeFailure(t *testing.T) {
	service := &fakeAnalysisService{err: domain.ScrapeError("https://acme.com", assert.AnError)}
	handler := NewAnalysisHandler(service, &fakeHistory{}, zap.NewNop())

	req := newAuthedRequest(t, uuid.New(), http.MethodPost, "/api/v1/analyses",
		AnalyzeRequest{URL: "https://acme.com"})
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAnalysisHandler_List(t *testing.T) {
	userID := uuid.New()
	history := &fakeHistory{
		items: []*domain.HistoryItem{
			{ID: uuid.New(), UserID: userID, Domain: "acme.com", Score: intPtr(73)},
			{ID: uuid.New(), UserID: userID, Domain: "globex.com", Score: intPtr(55)},
		},
		stats: &domain.HistoryStats{Total: 42, AverageScore: 64.0, BestScore: 73},
	}
	handler := NewAnalysisHandler(&fakeAnalysisService{}, history, zap.NewNop())

	req := newAuthedRequest(t, userID, http.MethodGet, "/api/v1/analyses?page=2&per_page=10", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, history.listLimit)
	assert.Equal(t, 10, history.listOffset)

	var resp HistoryResponse
	env := decodeData(t, rec, &resp)
	assert.Len(t, resp.Items, 2)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 42, resp.Stats.Total)
	assert.Equal(t, 73, resp.Stats.BestScore)

	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.Page)
	assert.Equal(t, 42, env.Meta.Total)
	assert.Equal(t, 5, env.Meta.TotalPages)
}

func TestAnalysisHandler_List_EmptyHistory(t *testing.T) {
	handler := NewAnalysisHandler(&fakeAnalysisService{}, &fakeHistory{}, zap.NewNop())

	req := newAuthedRequest(t, uuid.New(), http.MethodGet, "/api/v1/analyses", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HistoryResponse
	decodeData(t, rec, &resp)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestAnalysisHandler_Get(t *testing.T) {
	userID := uuid.New()
	item := &domain.HistoryItem{ID: uuid.New(), UserID: userID, CompanyName: "Acme"}
	history := &fakeHistory{items: []*domain.HistoryItem{item}}
	handler := NewAnalysisHandler(&fakeAnalysisService{}, history, zap.NewNop())

	t.Run("found", func(t *testing.T) {
		req := newAuthedRequest(t, userID, http.MethodGet, "/api/v1/analyses/"+item.ID.String(), nil)
		req = withRouteParam(req, "id", item.ID.String())
		rec := httptest.NewRecorder()
		handler.Get(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.HistoryItem
		decodeData(t, rec, &got)
		assert.Equal(t, "Acme", got.CompanyName)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := newAuthedRequest(t, userID, http.MethodGet, "/api/v1/analyses/not-a-uuid", nil)
		req = withRouteParam(req, "id", "not-a-uuid")
		rec := httptest.NewRecorder()
		handler.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		req := newAuthedRequest(t, userID, http.MethodGet, "/api/v1/analyses/"+uuid.NewString(), nil)
		req = withRouteParam(req, "id", uuid.NewString())
		rec := httptest.NewRecorder()
		handler.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAnalysisHandler_Scrape(t *testing.T) {
	service := &fakeAnalysisService{
		page: &domain.ScrapedPage{
			CompanyName: "Acme",
			PageType:    domain.PageTypeSustainability,
			Meta:        domain.PageMeta{Domain: "acme.com", URL: "https://acme.com"},
		},
	}
	handler := NewAnalysisHandler(service, &fakeHistory{}, zap.NewNop())

	req := newAuthedRequest(t, uuid.New(), http.MethodPost, "/api/v1/scrape",
		AnalyzeRequest{URL: "https://acme.com"})
	rec := httptest.NewRecorder()
	handler.Scrape(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var page domain.ScrapedPage
	decodeData(t, rec, &page)
	assert.Equal(t, "Acme", page.CompanyName)
	assert.Equal(t, domain.PageTypeSustainability, page.PageType)
}
