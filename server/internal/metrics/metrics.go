package metrics

import (
	"log/slog"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/paramwatch/paramwatch/pkg/types"
)

// Metric family names.
const (
	NameParam      = "paramwatch_param"
	NameValue      = "paramwatch_value"
	NameUpdates    = "paramwatch_updates_total"
	NameBatches    = "paramwatch_batches_total"
	NameSuppressed = "paramwatch_suppressed"
)

// Source provides the state to export. *model.Model satisfies it.
type Source interface {
	Snapshot() types.Snapshot
}

// Families converts snap into metric families, sorted by name.
func Families(snap types.Snapshot) []*dto.MetricFamily {
	var suppressed float64
	if snap.Suppressed {
		suppressed = 1
	}
	return []*dto.MetricFamily{
		counter(NameBatches, "Completed update batches.", float64(snap.Batches)),
		{
			Name: proto.String(NameParam),
			Help: proto.String("Current model parameter value."),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{
				gaugeMetric(snap.A, "name", "a"),
				gaugeMetric(snap.B, "name", "b"),
			},
		},
		gauge(NameSuppressed, "1 while an update batch is open, else 0.", suppressed),
		counter(NameUpdates, "Recomputations of the accumulated value.", float64(snap.Updates)),
		gauge(NameValue, "Accumulated value.", snap.Value),
	}
}

// Handler returns an http.Handler that serves the current state of src.
func Handler(src Source) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		format := expfmt.Negotiate(r.Header)
		w.Header().Set("Content-Type", string(format))

		enc := expfmt.NewEncoder(w, format)
		for _, mf := range Families(src.Snapshot()) {
			if err := enc.Encode(mf); err != nil {
				slog.Error("metrics: encode failed", "family", mf.GetName(), "err", err)
				return
			}
		}
		if c, ok := enc.(expfmt.Closer); ok {
			if err := c.Close(); err != nil {
				slog.Error("metrics: close encoder", "err", err)
			}
		}
	})
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{gaugeMetric(v)},
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{
			Counter: &dto.Counter{Value: proto.Float64(v)},
		}},
	}
}

// gaugeMetric builds one gauge sample; labels are name/value pairs.
func gaugeMetric(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}
