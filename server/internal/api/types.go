package api

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/paramwatch/paramwatch/pkg/types"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Updates uint64 `json:"updates"`
	Batches uint64 `json:"batches"`
}

// ModelResponse is the payload for GET /api/v1/model and the body of every
// mutating endpoint's reply.
//
// The accumulator can overflow after enough recomputes. Non-finite numbers
// are encoded as the strings "+Inf", "-Inf" and "NaN", the spelling the
// Prometheus text format uses; finite numbers stay JSON numbers.
type ModelResponse struct {
	A          float64 `json:"a"`
	B          float64 `json:"b"`
	Value      float64 `json:"value"`
	Sum        float64 `json:"sum"` // amount the next recompute adds
	Updates    uint64  `json:"updates"`
	Batches    uint64  `json:"batches"`
	Suppressed bool    `json:"suppressed"`
	At         string  `json:"at"` // RFC3339
}

// ParamsRequest is the body of PUT/PATCH /api/v1/model/params.
// Absent fields are left unchanged; at least one must be present.
type ParamsRequest struct {
	A *float64 `json:"a"`
	B *float64 `json:"b"`
}

// HistoryResponse is the payload for GET /api/v1/history.
type HistoryResponse struct {
	Count   int            `json:"count"`
	Entries []HistoryEntry `json:"entries"`
}

// HistoryEntry is one recorded update.
type HistoryEntry struct {
	Seq        uint64        `json:"seq"`
	Model      ModelResponse `json:"model"`
	RecordedAt string        `json:"recorded_at"` // RFC3339
}

// MarshalJSON encodes r with non-finite floats spelled as strings.
func (r ModelResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		A          jsonFloat `json:"a"`
		B          jsonFloat `json:"b"`
		Value      jsonFloat `json:"value"`
		Sum        jsonFloat `json:"sum"`
		Updates    uint64    `json:"updates"`
		Batches    uint64    `json:"batches"`
		Suppressed bool      `json:"suppressed"`
		At         string    `json:"at"`
	}{
		A:          jsonFloat(r.A),
		B:          jsonFloat(r.B),
		Value:      jsonFloat(r.Value),
		Sum:        jsonFloat(r.Sum),
		Updates:    r.Updates,
		Batches:    r.Batches,
		Suppressed: r.Suppressed,
		At:         r.At,
	})
}

type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// BuildModel maps a snapshot to its JSON representation.
// It is shared with the WebSocket hub so both surfaces emit the same shape.
func BuildModel(s types.Snapshot) ModelResponse {
	return ModelResponse{
		A:          s.A,
		B:          s.B,
		Value:      s.Value,
		Sum:        s.Sum(),
		Updates:    s.Updates,
		Batches:    s.Batches,
		Suppressed: s.Suppressed,
		At:         s.At.UTC().Format(time.RFC3339),
	}
}
