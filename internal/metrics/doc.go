// Package metrics provides build metrics for site generation.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing; PrometheusRecorder registers collectors on a
// Prometheus registry whose contents can be written to a node_exporter textfile
// after a run or served over HTTP:
//
//	reg := prom.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	gen := site.NewGenerator(cfg, site.WithRecorder(recorder))
//	...
//	err := metrics.WriteTextfile(reg, "/var/lib/node_exporter/pagesmith.prom")
package metrics
