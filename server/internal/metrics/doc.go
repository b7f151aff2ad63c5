// Package metrics exposes the model state in the Prometheus exposition format.
//
// Families builds client_model MetricFamily values from a types.Snapshot;
// Handler serves them on /metrics, encoding with expfmt in whatever format
// the scraper negotiates through its Accept header.
//
// Exported series:
//
//	paramwatch_param{name="a"|"b"}  gauge    current parameter values
//	paramwatch_value                 gauge    accumulated value
//	paramwatch_updates_total         counter  recomputations
//	paramwatch_batches_total         counter  completed batches
//	paramwatch_suppressed            gauge    1 while a batch is open
package metrics
