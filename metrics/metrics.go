// Package metrics exports lookup diagnostics and registry contents as
// Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/snapcore/go-linguist"
)

// Diagnostics counts lookups that did not resolve to a finished
// translation. It implements linguist.Diagnostics.
type Diagnostics struct {
	lookups *prometheus.CounterVec
}

// NewDiagnostics creates the counters and registers them with reg.
func NewDiagnostics(reg prometheus.Registerer) (*Diagnostics, error) {
	d := &Diagnostics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linguist",
			Name:      "degraded_lookups_total",
			Help:      "Lookups that returned an unfinished translation or the source text.",
		}, []string{"module", "locale", "outcome"}),
	}
	if err := reg.Register(d.lookups); err != nil {
		return nil, err
	}
	return d, nil
}

// Lookup implements linguist.Diagnostics. The locale label is the
// preferred locale of the chain.
func (d *Diagnostics) Lookup(ev linguist.LookupEvent) {
	var preferred string
	if len(ev.Chain) > 0 {
		preferred = ev.Chain[0]
	}
	d.lookups.WithLabelValues(ev.Module, preferred, ev.Outcome.String()).Inc()
}

// Collector reports per catalog message counts of a registry. Values are
// read from the registry at collection time.
type Collector struct {
	registry *linguist.Registry
	messages *prometheus.Desc
}

// NewCollector returns a collector for reg. Register it with a
// prometheus.Registerer to export it.
func NewCollector(reg *linguist.Registry) *Collector {
	return &Collector{
		registry: reg,
		messages: prometheus.NewDesc(
			"linguist_catalog_messages",
			"Messages of registered catalogs by status.",
			[]string{"module", "locale", "status"}, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.messages
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, cat := range c.registry.Catalogs() {
		s := cat.Stats()
		for _, v := range []struct {
			status linguist.Status
			count  int
		}{
			{linguist.Finished, s.Finished},
			{linguist.Unfinished, s.Unfinished},
			{linguist.Obsolete, s.Obsolete},
			{linguist.Vanished, s.Vanished},
		} {
			ch <- prometheus.MustNewConstMetric(c.messages, prometheus.GaugeValue,
				float64(v.count), cat.Module(), cat.Locale(), v.status.String())
		}
	}
}
