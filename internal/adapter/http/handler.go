package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/seismic-risk-service/internal/adapter/sqlite"
	"github.com/couchcryptid/seismic-risk-service/internal/domain"
	"github.com/couchcryptid/seismic-risk-service/internal/observability"
)

const (
	maxHotspots         = 50
	defaultHorizonYears = 1000.0
)

// History stores and lists assessments. sqlite.Store satisfies it.
type History interface {
	LoadBatch(ctx context.Context, events []domain.AssessmentEvent) error
	List(ctx context.Context, f sqlite.Filter) ([]domain.AssessmentEvent, error)
	Get(ctx context.Context, id string) (domain.AssessmentEvent, error)
}

// HandlerConfig wires a Handler. Geocoder and History may be nil.
type HandlerConfig struct {
	Engine           *domain.Engine
	Geocoder         domain.Geocoder
	History          History
	Metrics          *observability.Metrics
	Logger           *slog.Logger
	ReleaseThreshold float64
	Workers          int
}

// Handler serves the risk API.
type Handler struct {
	engine           *domain.Engine
	geocoder         domain.Geocoder
	history          History
	metrics          *observability.Metrics
	logger           *slog.Logger
	releaseThreshold float64
	workers          int
}

// NewHandler creates a Handler from cfg.
func NewHandler(cfg HandlerConfig) *Handler {
	threshold := cfg.ReleaseThreshold
	if threshold <= 0 {
		threshold = domain.DefaultReleaseThreshold
	}
	return &Handler{
		engine:           cfg.Engine,
		geocoder:         cfg.Geocoder,
		history:          cfg.History,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
		releaseThreshold: threshold,
		workers:          max(cfg.Workers, 1),
	}
}

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/assess", h.assess)
	r.POST("/assess/batch", h.assessBatch)
	r.POST("/simulate", h.simulate)
	r.GET("/assessments", h.listAssessments)
	r.GET("/assessments/:id", h.getAssessment)
	r.GET("/catalog/volcanoes", h.volcanoes)
	r.GET("/catalog/boundaries", h.boundaries)
	r.GET("/catalog/sites", h.sites)
	r.GET("/plates/projection", h.plateProjection)
}

type assessRequest struct {
	ID        string   `json:"id"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Magnitude *float64 `json:"magnitude"`
	Depth     *float64 `json:"depth"`
	Place     string   `json:"place" binding:"max=200"`
	Site      string   `json:"site" binding:"max=100"`
}

type batchRequest struct {
	Requests []assessRequest `json:"requests" binding:"required,min=1,max=500,dive"`
}

type simulateRequest struct {
	HorizonYears     float64  `json:"horizon_years" binding:"required,gt=0"`
	StepYears        float64  `json:"step_years" binding:"required,gt=0"`
	ReleaseThreshold *float64 `json:"release_threshold" binding:"omitempty,gt=0"`
	IncludeStates    bool     `json:"include_states"`
}

type simulateResponse struct {
	Report domain.SimulationReport `json:"report"`
	States []domain.StressState    `json:"states,omitempty"`
}

type projectionResponse struct {
	Years      float64                `json:"years"`
	Movements  []domain.PlateMovement `json:"movements"`
	Converging []domain.Convergence   `json:"converging"`
	Hotspots   []domain.Hotspot       `json:"hotspots"`
}

func (h *Handler) assess(c *gin.Context) {
	var req assessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, err := h.evaluate(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.record(c.Request.Context(), []domain.AssessmentEvent{ev})
	c.JSON(http.StatusOK, ev)
}

func (h *Handler) assessBatch(c *gin.Context) {
	var body batchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	msgs := make([]domain.AssessmentMessage, len(body.Requests))
	geos := make([]domain.LocationInfo, len(body.Requests))
	reqs := make([]domain.AssessmentRequest, len(body.Requests))
	for i, r := range body.Requests {
		msg, geo, req, err := h.resolve(ctx, r)
		if err != nil {
			h.fail(c, fmt.Errorf("request %d: %w", i, err))
			return
		}
		msgs[i], geos[i], reqs[i] = msg, geo, req
	}

	results, err := h.engine.AssessAll(ctx, reqs, h.workers)
	if err != nil {
		h.fail(c, err)
		return
	}

	events := make([]domain.AssessmentEvent, len(results))
	for i, a := range results {
		events[i] = domain.NewAssessmentEvent(msgs[i], geos[i], a)
		h.observe(a)
	}
	h.record(ctx, events)
	c.JSON(http.StatusOK, gin.H{"assessments": events})
}

func (h *Handler) simulate(c *gin.Context) {
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	threshold := h.releaseThreshold
	if req.ReleaseThreshold != nil {
		threshold = *req.ReleaseThreshold
	}

	segments := h.engine.Catalog().Boundaries
	states, err := domain.SimulateContext(c.Request.Context(), segments, req.HorizonYears, req.StepYears,
		domain.WithReleaseThreshold(threshold))
	if err != nil {
		h.fail(c, err)
		return
	}

	report := domain.SummarizeSimulation(states, segments, threshold)
	if h.metrics != nil {
		h.metrics.ObserveSimulation(len(report.Events))
	}

	resp := simulateResponse{Report: report}
	if req.IncludeStates {
		resp.States = states
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listAssessments(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assessment history is disabled"})
		return
	}

	filter := sqlite.Filter{Limit: sqlite.DefaultLimit}
	if t := c.Query("tier"); t != "" {
		tier := domain.Tier(strings.ToUpper(t))
		switch tier {
		case domain.TierLow, domain.TierModerate, domain.TierHigh, domain.TierVeryHigh:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown tier %q", t)})
			return
		}
		filter.Tier = &tier
	}
	if s := c.Query("min_score"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be a number"})
			return
		}
		filter.MinScore = &v
	}
	if s := c.Query("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t, err = time.Parse(time.DateOnly, s)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC3339 timestamp or YYYY-MM-DD date"})
			return
		}
		filter.Since = &t
	}
	if l := c.Query("limit"); l != "" {
		lim, err := strconv.Atoi(l)
		if err != nil || lim <= 0 || lim > sqlite.MaxLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be an integer in [1, %d]", sqlite.MaxLimit)})
			return
		}
		filter.Limit = lim
	}
	if o := c.Query("offset"); o != "" {
		off, err := strconv.Atoi(o)
		if err != nil || off < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
			return
		}
		filter.Offset = off
	}

	events, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("list assessments failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch assessments"})
		return
	}

	if c.Query("format") == "geojson" {
		c.Header("Content-Type", geoJSONContentType)
		c.JSON(http.StatusOK, assessmentFeatures(events))
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessments": events})
}

func (h *Handler) getAssessment(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assessment history is disabled"})
		return
	}

	ev, err := h.history.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("get assessment failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch assessment"})
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (h *Handler) volcanoes(c *gin.Context) {
	c.Header("Content-Type", geoJSONContentType)
	c.JSON(http.StatusOK, volcanoFeatures(h.engine.Catalog().Volcanoes))
}

func (h *Handler) boundaries(c *gin.Context) {
	c.Header("Content-Type", geoJSONContentType)
	c.JSON(http.StatusOK, boundaryFeatures(h.engine.Catalog().Boundaries))
}

func (h *Handler) sites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sites": h.engine.Catalog().Sites})
}

func (h *Handler) plateProjection(c *gin.Context) {
	years := defaultHorizonYears
	if s := c.Query("years"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "years must be a number"})
			return
		}
		years = v
	}
	resolution := 10.0
	if s := c.Query("resolution"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "resolution must be a number"})
			return
		}
		resolution = v
	}
	var threshold float64
	if s := c.Query("threshold"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number"})
			return
		}
		threshold = v
	}

	movements, err := domain.ProjectPlates(h.engine.Catalog().Plates, years)
	if err != nil {
		h.fail(c, err)
		return
	}
	hotspots, err := domain.Hotspots(c.Request.Context(), movements, resolution, threshold, maxHotspots)
	if err != nil {
		h.fail(c, err)
		return
	}

	converging := domain.ConvergingPairs(movements)
	if converging == nil {
		converging = []domain.Convergence{}
	}
	if hotspots == nil {
		hotspots = []domain.Hotspot{}
	}
	c.JSON(http.StatusOK, projectionResponse{
		Years:      years,
		Movements:  movements,
		Converging: converging,
		Hotspots:   hotspots,
	})
}

// evaluate resolves and scores a single request.
func (h *Handler) evaluate(ctx context.Context, r assessRequest) (domain.AssessmentEvent, error) {
	msg, geo, req, err := h.resolve(ctx, r)
	if err != nil {
		return domain.AssessmentEvent{}, err
	}
	a, err := h.engine.Assess(req)
	if err != nil {
		return domain.AssessmentEvent{}, err
	}
	h.observe(a)
	return domain.NewAssessmentEvent(msg, geo, a), nil
}

// resolve turns an API request into an assessment request. A named site wins
// over a place name; coordinates win over both.
func (h *Handler) resolve(ctx context.Context, r assessRequest) (domain.AssessmentMessage, domain.LocationInfo, domain.AssessmentRequest, error) {
	msg := domain.AssessmentMessage{
		ID:        r.ID,
		Lat:       r.Lat,
		Lon:       r.Lon,
		Magnitude: r.Magnitude,
		Depth:     r.Depth,
		Place:     strings.TrimSpace(r.Place),
	}

	if !msg.HasCoordinates() && r.Site != "" {
		site, ok := h.engine.Catalog().Site(r.Site)
		if !ok {
			return msg, domain.LocationInfo{}, domain.AssessmentRequest{}, fmt.Errorf("%w: unknown site %q", errUnknownSite, r.Site)
		}
		lat, lon := site.Location.Lat, site.Location.Lon
		msg.Lat, msg.Lon = &lat, &lon
		msg.Place = site.Name
	}

	if !msg.HasCoordinates() && msg.Place == "" {
		return msg, domain.LocationInfo{}, domain.AssessmentRequest{}, fmt.Errorf("%w: lat/lon, site, or place is required", domain.ErrInvalidCoordinate)
	}

	msg, geo, err := domain.ResolveLocation(ctx, msg, h.geocoder, h.logger)
	if err != nil {
		return msg, geo, domain.AssessmentRequest{}, err
	}
	req, err := msg.Request()
	return msg, geo, req, err
}

func (h *Handler) observe(a domain.RiskAssessment) {
	if h.metrics != nil {
		h.metrics.ObserveAssessment(observability.SourceAPI, a)
	}
}

// record stores API assessments in the history. Failures are logged; the
// caller still gets its result.
func (h *Handler) record(ctx context.Context, events []domain.AssessmentEvent) {
	if h.history == nil {
		return
	}
	if err := h.history.LoadBatch(ctx, events); err != nil {
		h.logger.Warn("record assessments failed", "error", err, "count", len(events))
	}
}

var errUnknownSite = errors.New("unknown site")

func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate),
		errors.Is(err, domain.ErrInvalidParameter),
		errors.Is(err, domain.ErrInvalidSimulationParameters):
		status = http.StatusBadRequest
	case errors.Is(err, errUnknownSite):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
