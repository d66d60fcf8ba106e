package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ecoguard/ecoguard/internal/api/middleware"
	"github.com/ecoguard/ecoguard/internal/domain"
	"github.com/ecoguard/ecoguard/internal/services/analysis"
	"github.com/ecoguard/ecoguard/pkg/httputil"
)

// envelope mirrors the wire format for assertions.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *httputil.Error `json:"error"`
	Meta    *httputil.Meta  `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Data)
	require.NoError(t, json.Unmarshal(env.Data, out))
	return env
}

func newAuthedRequest(t *testing.T, userID uuid.UUID, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

// withRouteParam injects a chi URL parameter the way the router would.
func withRouteParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type fakeAnalysisService struct {
	outcome *analysis.Outcome
	page    *domain.ScrapedPage
	err     error

	gotUser uuid.UUID
	gotURL  string
}

func (f *fakeAnalysisService) Analyze(_ context.Context, userID uuid.UUID, url string) (*analysis.Outcome, error) {
	f.gotUser = userID
	f.gotURL = url
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func (f *fakeAnalysisService) Scrape(_ context.Context, url string) (*domain.ScrapedPage, error) {
	f.gotURL = url
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

type fakeHistory struct {
	items []*domain.HistoryItem
	stats *domain.HistoryStats
	err   error

	listLimit  int
	listOffset int
	deletedAll bool
}

func (f *fakeHistory) List(_ context.Context, _ uuid.UUID, limit, offset int) ([]*domain.HistoryItem, error) {
	f.listLimit = limit
	f.listOffset = offset
	return f.items, f.err
}

func (f *fakeHistory) GetByID(_ context.Context, userID, id uuid.UUID) (*domain.HistoryItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, item := range f.items {
		if item.ID == id && item.UserID == userID {
			return item, nil
		}
	}
	return nil, domain.NotFoundError("history_item", id.String())
}

func (f *fakeHistory) Stats(_ context.Context, _ uuid.UUID) (*domain.HistoryStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.stats != nil {
		return f.stats, nil
	}
	return &domain.HistoryStats{Total: len(f.items)}, nil
}

func (f *fakeHistory) DeleteAll(_ context.Context, _ uuid.UUID) error {
	f.deletedAll = true
	f.items = nil
	return f.err
}

type fakeProgress struct {
	progress *domain.UserProgress
	err      error

	deleted     bool
	incremented int
}

func (f *fakeProgress) Get(_ context.Context, userID uuid.UUID) (*domain.UserProgress, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.progress == nil {
		return nil, domain.NotFoundError("progress", userID.String())
	}
	return f.progress, nil
}

func (f *fakeProgress) Delete(_ context.Context, _ uuid.UUID) error {
	f.deleted = true
	return f.err
}

func (f *fakeProgress) IncrementCompaniesCompared(_ context.Context, _ uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.incremented++
	return nil
}

type fakeSettings struct {
	settings *domain.Settings
	err      error

	upserted *domain.Settings
	deleted  bool
}

func (f *fakeSettings) Get(_ context.Context, userID uuid.UUID) (*domain.Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.settings == nil {
		return nil, domain.NotFoundError("settings", userID.String())
	}
	return f.settings, nil
}

func (f *fakeSettings) Upsert(_ context.Context, settings *domain.Settings) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = settings
	f.settings = settings
	return nil
}

func (f *fakeSettings) Delete(_ context.Context, _ uuid.UUID) error {
	f.deleted = true
	return f.err
}

type fakeKeyTester struct {
	err error

	gotKey string
}

func (f *fakeKeyTester) TestKey(_ context.Context, apiKey string) error {
	f.gotKey = apiKey
	return f.err
}

type fakeComparisons struct {
	comparisons []*domain.Comparison
	err         error

	deletedDomain string
	deletedAll    bool
}

func (f *fakeComparisons) Upsert(_ context.Context, comparison *domain.Comparison) error {
	if f.err != nil {
		return f.err
	}
	for i, c := range f.comparisons {
		if c.Domain == comparison.Domain {
			f.comparisons[i] = comparison
			return nil
		}
	}
	f.comparisons = append(f.comparisons, comparison)
	return nil
}

func (f *fakeComparisons) List(_ context.Context, _ uuid.UUID) ([]*domain.Comparison, error) {
	return f.comparisons, f.err
}

func (f *fakeComparisons) Delete(_ context.Context, _ uuid.UUID, companyDomain string) error {
	if f.err != nil {
		return f.err
	}
	for i, c := range f.comparisons {
		if c.Domain == companyDomain {
			f.comparisons = append(f.comparisons[:i], f.comparisons[i+1:]...)
			f.deletedDomain = companyDomain
			return nil
		}
	}
	return domain.NotFoundError("comparison", companyDomain)
}

func (f *fakeComparisons) DeleteAll(_ context.Context, _ uuid.UUID) error {
	f.deletedAll = true
	f.comparisons = nil
	return f.err
}
