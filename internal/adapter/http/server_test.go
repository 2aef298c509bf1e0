package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/seismic-risk-service/internal/adapter/http"
	"github.com/couchcryptid/seismic-risk-service/internal/adapter/sqlite"
	"github.com/couchcryptid/seismic-risk-service/internal/catalog"
	"github.com/couchcryptid/seismic-risk-service/internal/domain"
	"github.com/couchcryptid/seismic-risk-service/internal/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type fakeHistory struct {
	mu      sync.Mutex
	events  map[string]domain.AssessmentEvent
	filters []sqlite.Filter
	listErr error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{events: make(map[string]domain.AssessmentEvent)}
}

func (f *fakeHistory) LoadBatch(_ context.Context, events []domain.AssessmentEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range events {
		f.events[ev.ID] = ev
	}
	return nil
}

func (f *fakeHistory) List(_ context.Context, filter sqlite.Filter) ([]domain.AssessmentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.AssessmentEvent, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev)
	}
	return out, nil
}

func (f *fakeHistory) Get(_ context.Context, id string) (domain.AssessmentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return domain.AssessmentEvent{}, sqlite.ErrNotFound
	}
	return ev, nil
}

type testEnv struct {
	router  http.Handler
	history *fakeHistory
	metrics *observability.Metrics
}

func newTestEnv(t *testing.T, readyErr error, rps int) *testEnv {
	t.Helper()

	c, err := catalog.Default()
	require.NoError(t, err)
	engine, err := domain.NewEngine(c, domain.WithReferenceYear(2026))
	require.NoError(t, err)

	history := newFakeHistory()
	metrics := observability.NewMetricsForTesting()
	h := httpadapter.NewHandler(httpadapter.HandlerConfig{
		Engine:  engine,
		History: history,
		Metrics: metrics,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Workers: 2,
	})

	return &testEnv{
		router:  httpadapter.NewRouter(h, &mockReadiness{err: readyErr}, rps),
		history: history,
		metrics: metrics,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthzReturns200(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodGet, "/readyz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	env := newTestEnv(t, errors.New("not ready yet"), 100)
	rec := env.do(t, http.MethodGet, "/readyz", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAssess_Coordinates(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodPost, "/api/v1/assess", map[string]any{
		"lat":       37.7749,
		"lon":       -122.4194,
		"magnitude": 7,
		"depth":     10,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ev domain.AssessmentEvent
	decode(t, rec, &ev)
	assert.Equal(t, domain.TierHigh, ev.Assessment.Tier)
	assert.Equal(t, "Pacific Ring of Fire 2", ev.Assessment.NearestBoundary)
	assert.NotEmpty(t, ev.ID)

	stored, err := env.history.Get(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, stored.ID)
}

func TestAssess_NamedSite(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodPost, "/api/v1/assess", map[string]any{
		"site":      "San Francisco",
		"magnitude": 7,
		"depth":     10,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ev domain.AssessmentEvent
	decode(t, rec, &ev)
	assert.Equal(t, "San Francisco", ev.Place)
	assert.InDelta(t, 37.7749, ev.Assessment.Location.Lat, 1e-6)
}

func TestAssess_Errors(t *testing.T) {
	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "no location", body: map[string]any{"magnitude": 5}, want: http.StatusBadRequest},
		{name: "latitude out of range", body: map[string]any{"lat": 91, "lon": 0}, want: http.StatusBadRequest},
		{name: "unknown site", body: map[string]any{"site": "Atlantis"}, want: http.StatusNotFound},
		{name: "place without geocoder", body: map[string]any{"place": "Tokyo"}, want: http.StatusBadRequest},
		{name: "malformed body", body: "not an object", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, 100)
			rec := env.do(t, http.MethodPost, "/api/v1/assess", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAssessBatch_PreservesOrder(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodPost, "/api/v1/assess/batch", map[string]any{
		"requests": []map[string]any{
			{"id": "a", "lat": 0, "lon": 0, "magnitude": 5, "depth": 10},
			{"id": "b", "lat": 37.7749, "lon": -122.4194, "magnitude": 7, "depth": 10},
			{"id": "c", "site": "Tokyo"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Assessments []domain.AssessmentEvent `json:"assessments"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Assessments, 3)
	assert.Equal(t, "a", body.Assessments[0].RequestID)
	assert.Equal(t, "b", body.Assessments[1].RequestID)
	assert.Equal(t, "c", body.Assessments[2].RequestID)
	assert.Equal(t, domain.TierHigh, body.Assessments[1].Assessment.Tier)
}

func TestAssessBatch_RejectsEmpty(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodPost, "/api/v1/assess/batch", map[string]any{"requests": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimulate(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodPost, "/api/v1/simulate", map[string]any{
		"horizon_years":  100,
		"step_years":     10,
		"include_states": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Report domain.SimulationReport `json:"report"`
		States []domain.StressState    `json:"states"`
	}
	decode(t, rec, &body)
	assert.Len(t, body.States, 11)
	assert.Equal(t, 11, body.Report.States)
	assert.Len(t, body.Report.Segments, 15)
	assert.Equal(t, domain.DefaultReleaseThreshold, body.Report.Threshold)
}

func TestSimulate_InvalidParameters(t *testing.T) {
	env := newTestEnv(t, nil, 100)

	rec := env.do(t, http.MethodPost, "/api/v1/simulate", map[string]any{"horizon_years": 100, "step_years": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/simulate", map[string]any{"horizon_years": 1e9, "step_years": 0.001})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAssessments(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodPost, "/api/v1/assess", map[string]any{"lat": 0, "lon": 0, "magnitude": 5})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/assessments?tier=low&min_score=0.1&limit=5&offset=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Assessments []domain.AssessmentEvent `json:"assessments"`
	}
	decode(t, rec, &body)
	assert.Len(t, body.Assessments, 1)

	require.Len(t, env.history.filters, 1)
	f := env.history.filters[0]
	require.NotNil(t, f.Tier)
	assert.Equal(t, domain.TierLow, *f.Tier)
	require.NotNil(t, f.MinScore)
	assert.InDelta(t, 0.1, *f.MinScore, 1e-9)
	assert.Equal(t, 5, f.Limit)
	assert.Equal(t, 2, f.Offset)
}

func TestListAssessments_UnknownTier(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodGet, "/api/v1/assessments?tier=extreme", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAssessments_MalformedQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"min_score not a number", "min_score=high"},
		{"min_score NaN", "min_score=NaN"},
		{"since not a time", "since=yesterday"},
		{"since wrong date layout", "since=19/10/2026"},
		{"limit not an integer", "limit=ten"},
		{"limit zero", "limit=0"},
		{"limit above maximum", "limit=501"},
		{"offset not an integer", "offset=first"},
		{"offset negative", "offset=-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, 100)
			rec := env.do(t, http.MethodGet, "/api/v1/assessments?"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Empty(t, env.history.filters, "store not queried")
		})
	}
}

func TestListAssessments_SinceLayouts(t *testing.T) {
	tests := []struct {
		query string
		want  time.Time
	}{
		{"since=2026-10-19", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)},
		{"since=2026-10-19T12:30:00Z", time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			env := newTestEnv(t, nil, 100)
			rec := env.do(t, http.MethodGet, "/api/v1/assessments?"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			require.Len(t, env.history.filters, 1)
			require.NotNil(t, env.history.filters[0].Since)
			assert.True(t, tt.want.Equal(*env.history.filters[0].Since))
		})
	}
}

func TestListAssessments_StoreError(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	env.history.listErr = errors.New("disk on fire")

	rec := env.do(t, http.MethodGet, "/api/v1/assessments", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestListAssessments_GeoJSON(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	env.do(t, http.MethodPost, "/api/v1/assess", map[string]any{"lat": 10, "lon": 20})

	rec := env.do(t, http.MethodGet, "/api/v1/assessments?format=geojson", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	decode(t, rec, &fc)
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, []float64{20, 10}, fc.Features[0].Geometry.Coordinates)
}

func TestGetAssessment(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodPost, "/api/v1/assess", map[string]any{"lat": 35.6762, "lon": 139.6503})
	require.Equal(t, http.StatusOK, rec.Code)

	var created domain.AssessmentEvent
	decode(t, rec, &created)

	rec = env.do(t, http.MethodGet, "/api/v1/assessments/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.AssessmentEvent
	decode(t, rec, &got)
	assert.Equal(t, created.ID, got.ID)

	rec = env.do(t, http.MethodGet, "/api/v1/assessments/risk-missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryDisabled(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	engine, err := domain.NewEngine(c)
	require.NoError(t, err)

	h := httpadapter.NewHandler(httpadapter.HandlerConfig{
		Engine: engine,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	router := httpadapter.NewRouter(h, &mockReadiness{}, 100)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, 100)

	tests := []struct {
		path     string
		features int
	}{
		{path: "/api/v1/catalog/volcanoes", features: 77},
		{path: "/api/v1/catalog/boundaries", features: 15},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

			var fc struct {
				Features []json.RawMessage `json:"features"`
			}
			decode(t, rec, &fc)
			assert.Len(t, fc.Features, tt.features)
		})
	}

	rec := env.do(t, http.MethodGet, "/api/v1/catalog/sites", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Sites []domain.Site `json:"sites"`
	}
	decode(t, rec, &body)
	assert.Len(t, body.Sites, 6)
}

func TestPlateProjection(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodGet, "/api/v1/plates/projection?years=100", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Years      float64                `json:"years"`
		Movements  []domain.PlateMovement `json:"movements"`
		Converging []domain.Convergence   `json:"converging"`
		Hotspots   []domain.Hotspot       `json:"hotspots"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 100.0, body.Years)
	assert.Len(t, body.Movements, 4)
	assert.NotEmpty(t, body.Converging)
	assert.LessOrEqual(t, len(body.Hotspots), 50)
	for i := 1; i < len(body.Hotspots); i++ {
		assert.GreaterOrEqual(t, body.Hotspots[i-1].Stress, body.Hotspots[i].Stress)
	}
}

func TestPlateProjection_BadQuery(t *testing.T) {
	env := newTestEnv(t, nil, 100)

	rec := env.do(t, http.MethodGet, "/api/v1/plates/projection?years=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/plates/projection?resolution=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlateProjection_RejectsUnboundedScan(t *testing.T) {
	env := newTestEnv(t, nil, 100)

	tests := []struct {
		name  string
		query string
	}{
		{"grid finer than one degree", "resolution=0.01&threshold=-1"},
		{"grid just under one degree", "resolution=0.99"},
		{"malformed threshold", "threshold=lots"},
		{"NaN threshold", "threshold=NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/plates/projection?years=100&"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestPlateProjection_FinestGridIsCapped(t *testing.T) {
	env := newTestEnv(t, nil, 100)
	rec := env.do(t, http.MethodGet, "/api/v1/plates/projection?years=100&resolution=1&threshold=-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Hotspots []domain.Hotspot `json:"hotspots"`
	}
	decode(t, rec, &body)
	assert.Len(t, body.Hotspots, 50)
	for i := 1; i < len(body.Hotspots); i++ {
		assert.GreaterOrEqual(t, body.Hotspots[i-1].Stress, body.Hotspots[i].Stress)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, nil, 1)

	first := env.do(t, http.MethodGet, "/api/v1/catalog/sites", nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := env.do(t, http.MethodGet, "/api/v1/catalog/sites", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	health := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, health.Code, "health checks are not rate limited")
}
