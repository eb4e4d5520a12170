package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/WessleyAI/towline/engine/domain"
	"github.com/WessleyAI/towline/engine/inventory"
	"github.com/WessleyAI/towline/engine/quote"
	"github.com/WessleyAI/towline/engine/vin"
	"github.com/WessleyAI/towline/engine/vpic"
	"github.com/WessleyAI/towline/pkg/fn"
	"github.com/WessleyAI/towline/pkg/metrics"
	"github.com/WessleyAI/towline/pkg/resilience"
)

const (
	maxBatch     = 100
	batchWorkers = 8
	maxListLimit = 500
	maxBodyBytes = 1 << 20
)

type vehicleStore interface {
	Intake(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
	Get(ctx context.Context, vin string) (domain.Vehicle, error)
	List(ctx context.Context, f inventory.Filter) ([]domain.Vehicle, error)
	Release(ctx context.Context, vin string) error
}

type vinDecoder interface {
	Decode(ctx context.Context, vin string) (vpic.Result, error)
}

type apiMetrics struct {
	checks  *prometheus.CounterVec
	vpic    *prometheus.HistogramVec
	breaker prometheus.Gauge
}

func newAPIMetrics(reg *metrics.Registry) *apiMetrics {
	return &apiMetrics{
		checks:  reg.Counter("vin_checks_total", "VINs checked, by outcome.", "result"),
		vpic:    reg.Histogram("vpic_request_seconds", "vPIC decode latency.", nil, "outcome"),
		breaker: reg.Gauge("vpic_breaker_state", "vPIC breaker state (0 closed, 1 open, 2 half-open).").WithLabelValues(),
	}
}

type server struct {
	store   vehicleStore
	decoder vinDecoder
	rates   quote.RateTable
	log     *slog.Logger
	m       *apiMetrics
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/vin/validate", s.handleValidate)
	mux.HandleFunc("GET /api/vin/{vin}", s.handleDecode)
	mux.HandleFunc("GET /api/vin/{vin}/vpic", s.handleVPIC)
	mux.HandleFunc("POST /api/vehicles", s.handleIntake)
	mux.HandleFunc("GET /api/vehicles", s.handleList)
	mux.HandleFunc("GET /api/vehicles/{vin}", s.handleGetVehicle)
	mux.HandleFunc("DELETE /api/vehicles/{vin}", s.handleRelease)
	mux.HandleFunc("POST /api/quote", s.handleQuote)
	return mux
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ValidateRequest is the JSON body for POST /api/vin/validate.
type ValidateRequest struct {
	VINs []string `json:"vins"`
}

// VINCheck is the verdict for one VIN. CheckDigit is the expected position-9
// character whenever the VIN is well formed enough to compute it.
type VINCheck struct {
	VIN        string `json:"vin"`
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
	CheckDigit string `json:"check_digit,omitempty"`
}

// ValidateResponse is the JSON response for POST /api/vin/validate.
type ValidateResponse struct {
	Results []VINCheck `json:"results"`
	Valid   int        `json:"valid"`
	Invalid int        `json:"invalid"`
}

func checkVIN(s string) VINCheck {
	c := VINCheck{VIN: s}
	if d, err := vin.CheckDigit(s); err == nil {
		c.CheckDigit = string(d)
	}
	if err := vin.Validate(s); err != nil {
		c.Error = err.Error()
		return c
	}
	c.Valid = true
	return c
}

func (s *server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.VINs) == 0 {
		writeError(w, http.StatusBadRequest, "vins is required")
		return
	}
	if len(req.VINs) > maxBatch {
		writeError(w, http.StatusBadRequest, "too many vins (max "+strconv.Itoa(maxBatch)+")")
		return
	}

	resp := ValidateResponse{Results: fn.ParMap(req.VINs, batchWorkers, checkVIN)}
	for _, c := range resp.Results {
		if c.Valid {
			resp.Valid++
		} else {
			resp.Invalid++
		}
	}
	s.m.checks.WithLabelValues("valid").Add(float64(resp.Valid))
	s.m.checks.WithLabelValues("invalid").Add(float64(resp.Invalid))
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleDecode(w http.ResponseWriter, r *http.Request) {
	d, err := vin.Decode(vin.Normalize(r.PathValue("vin")))
	if err != nil {
		s.m.checks.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.m.checks.WithLabelValues("valid").Inc()
	writeJSON(w, http.StatusOK, d)
}

func (s *server) handleVPIC(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res, err := s.decoder.Decode(r.Context(), r.PathValue("vin"))
	switch {
	case err == nil:
		metrics.Since(s.m.vpic.WithLabelValues("ok"), start)
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, vpic.ErrInvalidVIN):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, resilience.ErrCircuitOpen):
		metrics.Since(s.m.vpic.WithLabelValues("rejected"), start)
		writeError(w, http.StatusServiceUnavailable, "vpic temporarily unavailable")
	default:
		metrics.Since(s.m.vpic.WithLabelValues("error"), start)
		s.log.Error("vpic decode failed", "err", err)
		writeError(w, http.StatusBadGateway, "vpic upstream error")
	}
}

func (s *server) handleIntake(w http.ResponseWriter, r *http.Request) {
	var v domain.Vehicle
	if !decodeBody(w, r, &v) {
		return
	}
	out, err := s.store.Intake(r.Context(), v)
	var ve *domain.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, out)
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, inventory.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("intake failed", "vin", v.VIN, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := s.store.Get(r.Context(), r.PathValue("vin"))
	if errors.Is(err, inventory.ErrNotFound) {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	if err != nil {
		s.log.Error("get vehicle failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := inventory.Filter{Make: q.Get("make"), TenantID: q.Get("tenant")}
	var err error
	if f.Offset, err = intParam(q.Get("offset"), 0); err != nil || f.Offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	if f.Limit, err = intParam(q.Get("limit"), 100); err != nil || f.Limit < 1 || f.Limit > maxListLimit {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	vs, err := s.store.List(r.Context(), f)
	if err != nil {
		s.log.Error("list vehicles failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if vs == nil {
		vs = []domain.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vs)
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func (s *server) handleRelease(w http.ResponseWriter, r *http.Request) {
	err := s.store.Release(r.Context(), r.PathValue("vin"))
	if errors.Is(err, inventory.ErrNotFound) {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	if err != nil {
		s.log.Error("release vehicle failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req domain.TowRequest
	if !decodeBody(w, r, &req) {
		return
	}
	q, err := quote.Estimate(req, s.rates)
	var ve *domain.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, q)
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error("quote failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
