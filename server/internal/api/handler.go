package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/paramwatch/paramwatch/server/internal/history"
	"github.com/paramwatch/paramwatch/server/internal/model"
)

// maxBodyBytes bounds the params request body.
const maxBodyBytes = 1 << 12

var errNoParams = errors.New("at least one of a, b is required")

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	model   *model.Model
	history *history.Store
	mux     *http.ServeMux
}

// New creates a Handler wired to m and hist and registers all routes.
func New(m *model.Model, hist *history.Store) http.Handler {
	h := &Handler{model: m, history: hist, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/model", h.getModel)
	h.mux.HandleFunc("/api/v1/model/params", h.setParams)
	h.mux.HandleFunc("/api/v1/model/update", h.update)
	h.mux.HandleFunc("/api/v1/history", h.listHistory)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s := h.model.Snapshot()
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Updates: s.Updates,
		Batches: s.Batches,
	})
}

// getModel returns GET /api/v1/model.
func (h *Handler) getModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildModel(h.model.Snapshot()))
}

// setParams handles PUT|PATCH /api/v1/model/params. Every field present in
// the body is applied inside one batch, so the request costs one recompute
// whether it sets a, b or both.
func (h *Handler) setParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req, err := decodeParams(w, r)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	// Reject parameter pairs whose sum overflows: every later recompute would
	// add an infinite amount.
	a, b := h.model.A(), h.model.B()
	if req.A != nil {
		a = *req.A
	}
	if req.B != nil {
		b = *req.B
	}
	if !finite(a + b) {
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("a + b overflows (a=%g, b=%g)", a, b))
		return
	}

	h.model.Batch(func() error { //nolint:errcheck
		if req.A != nil {
			h.model.SetA(*req.A)
		}
		if req.B != nil {
			h.model.SetB(*req.B)
		}
		return nil
	})

	jsonResp(w, http.StatusOK, BuildModel(h.model.Snapshot()))
}

// update handles POST /api/v1/model/update.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.model.Update()
	jsonResp(w, http.StatusOK, BuildModel(h.model.Snapshot()))
}

// listHistory returns GET /api/v1/history: live entries, oldest first.
func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.history.List()
	resp := HistoryResponse{
		Count:   len(entries),
		Entries: make([]HistoryEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, HistoryEntry{
			Seq:        e.Seq,
			Model:      BuildModel(e.Snapshot),
			RecordedAt: e.RecordedAt.UTC().Format(time.RFC3339),
		})
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

func decodeParams(w http.ResponseWriter, r *http.Request) (*ParamsRequest, error) {
	var req ParamsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.A == nil && req.B == nil {
		return nil, errNoParams
	}
	for name, v := range map[string]*float64{"a": req.A, "b": req.B} {
		if v != nil && !finite(*v) {
			return nil, fmt.Errorf("%s must be a finite number", name)
		}
	}
	return &req, nil
}

// jsonResp encodes v before touching the response so an encoding failure
// can still be reported as a 500.
func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("api: encode response", "err", err)
		code = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(body, '\n')) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
