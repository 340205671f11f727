// Package factory provides a small generic registry used to instantiate
// pluggable modules, such as result sinks and run stores, from configuration.
// A module is named by a type string and carries a map of raw settings that
// its factory decodes into a typed struct.
//
// Example usage:
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	reg.Register("prometheus", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c struct{ Namespace string `json:"namespace"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return NewPromSink(c.Namespace, nil)
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "prometheus"})
package factory
