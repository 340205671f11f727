package metrics

import "github.com/kilianp07/drivesim/core/factory"

// Config defines settings for metrics sinks. PrometheusAddr, when set, serves
// the default registry on /metrics.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	PrometheusAddr string                 `json:"prometheus_addr" yaml:"prometheus_addr"`
}
