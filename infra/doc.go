// Package infra holds the adapters behind the core interfaces: the zerolog
// logger, result sinks for Prometheus, InfluxDB and the daily energy store,
// the MQTT publisher and the run history stores. Simulation code in core
// never imports these packages directly.
package infra
