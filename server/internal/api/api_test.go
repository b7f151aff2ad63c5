package api_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paramwatch/paramwatch/server/internal/api"
	"github.com/paramwatch/paramwatch/server/internal/history"
	"github.com/paramwatch/paramwatch/server/internal/model"
)

// --- test helpers -----------------------------------------------------------

// newHandler wires a fresh model to a history store the way main does.
func newHandler(t *testing.T, opts ...model.Option) (http.Handler, *model.Model, *history.Store) {
	t.Helper()
	opts = append([]model.Option{model.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	m := model.New(opts...)
	hist := history.New(5*time.Minute, 100)
	m.Subscribe(hist.Append)
	return api.New(m, hist), m, hist
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, r))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth(t *testing.T) {
	h, m, _ := newHandler(t)
	m.SetA(3)

	rr := do(t, h, http.MethodGet, "/api/v1/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "ok" || resp.Updates != 1 {
		t.Errorf("health: got %+v, want status ok, updates 1", resp)
	}
}

// --- /api/v1/model ----------------------------------------------------------

func TestGetModel_Defaults(t *testing.T) {
	h, _, _ := newHandler(t)

	rr := do(t, h, http.MethodGet, "/api/v1/model", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.ModelResponse
	decode(t, rr, &resp)
	if resp.A != 1 || resp.B != 2 || resp.Value != 0 {
		t.Errorf("model: got %+v, want a=1 b=2 value=0", resp)
	}
	if resp.Sum != 3 {
		t.Errorf("sum: got %v, want 3", resp.Sum)
	}
}

// --- /api/v1/model/params ---------------------------------------------------

func TestSetParams_BothInOneRecompute(t *testing.T) {
	h, m, _ := newHandler(t)

	rr := do(t, h, http.MethodPut, "/api/v1/model/params", `{"a": 10, "b": 10}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	var resp api.ModelResponse
	decode(t, rr, &resp)
	if resp.Value != 20 {
		t.Errorf("value: got %v, want 20", resp.Value)
	}
	if resp.Updates != 1 || resp.Batches != 1 {
		t.Errorf("updates/batches: got %d/%d, want 1/1", resp.Updates, resp.Batches)
	}
	if m.Suppressed() {
		t.Error("model left suppressed after request")
	}
}

func TestSetParams_PatchSingleField(t *testing.T) {
	h, m, _ := newHandler(t)

	rr := do(t, h, http.MethodPatch, "/api/v1/model/params", `{"b": 4}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if m.A() != 1 || m.B() != 4 {
		t.Errorf("params: got (%v, %v), want (1, 4)", m.A(), m.B())
	}
	if m.Value() != 5 {
		t.Errorf("value: got %v, want 5", m.Value())
	}
}

func TestSetParams_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"not json", `a=1`},
		{"wrong type", `{"a": "one"}`},
		{"unknown field", `{"c": 1}`},
		{"out of range", `{"a": 1e999}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, m, _ := newHandler(t)
			rr := do(t, h, http.MethodPut, "/api/v1/model/params", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rr.Code)
			}
			var resp struct {
				Error string `json:"error"`
			}
			decode(t, rr, &resp)
			if resp.Error == "" {
				t.Error("error message is empty")
			}
			if m.Value() != 0 {
				t.Errorf("rejected request changed value to %v", m.Value())
			}
		})
	}
}

func TestSetParams_OverflowingSumRejected(t *testing.T) {
	h, m, _ := newHandler(t)

	rr := do(t, h, http.MethodPut, "/api/v1/model/params", `{"a": 1.7e308, "b": 1.7e308}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400 (body: %s)", rr.Code, rr.Body.String())
	}
	if m.A() != 1 || m.B() != 2 || m.Value() != 0 {
		t.Errorf("model changed: a=%v b=%v value=%v", m.A(), m.B(), m.Value())
	}

	// One side alone overflowing against the current other side.
	h, m, _ = newHandler(t, model.WithParams(1.7e308, 1))
	rr = do(t, h, http.MethodPatch, "/api/v1/model/params", `{"b": 1.7e308}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("partial update status: got %d, want 400", rr.Code)
	}
	if m.B() != 1 {
		t.Errorf("b changed to %v", m.B())
	}
}

func TestOverflowedValue_EncodedAsString(t *testing.T) {
	h, m, _ := newHandler(t, model.WithParams(1e308, 0))
	m.Update()
	m.Update() // 2e308 overflows

	for _, path := range []string{"/api/v1/model", "/api/v1/history"} {
		rr := do(t, h, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s status: got %d, want 200", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"value":"+Inf"`) {
			t.Errorf("GET %s: body %s has no \"value\":\"+Inf\"", path, rr.Body.String())
		}
	}

	rr := do(t, h, http.MethodGet, "/api/v1/model", "")
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["a"] != 1e308 {
		t.Errorf("finite a: got %v (%T), want number 1e308", resp["a"], resp["a"])
	}
}

// --- /api/v1/model/update ---------------------------------------------------

func TestUpdate_Post(t *testing.T) {
	h, _, _ := newHandler(t)

	do(t, h, http.MethodPost, "/api/v1/model/update", "")
	rr := do(t, h, http.MethodPost, "/api/v1/model/update", "")
	var resp api.ModelResponse
	decode(t, rr, &resp)
	if resp.Value != 6 {
		t.Errorf("value after two updates: got %v, want 6", resp.Value)
	}
}

// --- /api/v1/history --------------------------------------------------------

func TestHistory_RecordsEachUpdate(t *testing.T) {
	h, m, _ := newHandler(t)
	m.SetA(3)
	m.SetB(4)
	do(t, h, http.MethodPut, "/api/v1/model/params", `{"a": 10, "b": 10}`)

	rr := do(t, h, http.MethodGet, "/api/v1/history", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.HistoryResponse
	decode(t, rr, &resp)
	if resp.Count != 3 {
		t.Fatalf("count: got %d, want 3", resp.Count)
	}
	want := []float64{5, 12, 32}
	for i, e := range resp.Entries {
		if e.Model.Value != want[i] {
			t.Errorf("entries[%d].value: got %v, want %v", i, e.Model.Value, want[i])
		}
		if e.Seq != uint64(i+1) {
			t.Errorf("entries[%d].seq: got %d, want %d", i, e.Seq, i+1)
		}
	}
}

func TestHistory_EmptyIsArray(t *testing.T) {
	h, _, _ := newHandler(t)
	rr := do(t, h, http.MethodGet, "/api/v1/history", "")
	if !strings.Contains(rr.Body.String(), `"entries":[]`) {
		t.Errorf("empty history should encode entries as [], got %s", rr.Body.String())
	}
}

// --- method checks ----------------------------------------------------------

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/health"},
		{http.MethodDelete, "/api/v1/model"},
		{http.MethodGet, "/api/v1/model/params"},
		{http.MethodGet, "/api/v1/model/update"},
		{http.MethodPost, "/api/v1/history"},
	}
	h, _, _ := newHandler(t)
	for _, tc := range tests {
		rr := do(t, h, tc.method, tc.path, "")
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: got %d, want 405", tc.method, tc.path, rr.Code)
		}
	}
}
