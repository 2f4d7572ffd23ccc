package tenantdb

import "github.com/prometheus/client_golang/prometheus"

// Collector exports registry statistics to Prometheus. Values are read from
// the registry at scrape time.
type Collector struct {
	registry *Registry

	connections *prometheus.Desc
	waiting     *prometheus.Desc
	maxConns    *prometheus.Desc
	active      *prometheus.Desc
	created     *prometheus.Desc
	failed      *prometheus.Desc
	evictions   *prometheus.Desc
}

// NewCollector creates a collector for registry. Metric names are prefixed
// with namespace, "humano" when empty.
func NewCollector(registry *Registry, namespace string) *Collector {
	if namespace == "" {
		namespace = "humano"
	}
	name := func(n string) string {
		return prometheus.BuildFQName(namespace, "tenant", n)
	}

	return &Collector{
		registry: registry,
		connections: prometheus.NewDesc(name("pool_connections"),
			"Connections of a tenant pool by state.", []string{"tenant", "state"}, nil),
		waiting: prometheus.NewDesc(name("pool_waiting"),
			"Connection acquisitions in flight on a tenant pool, approximating waiting callers.", []string{"tenant"}, nil),
		maxConns: prometheus.NewDesc(name("pool_max_connections"),
			"Maximum size of a tenant pool.", []string{"tenant"}, nil),
		active: prometheus.NewDesc(name("pools_active"),
			"Number of live tenant pools.", nil, nil),
		created: prometheus.NewDesc(name("pools_created_total"),
			"Tenant pools created.", nil, nil),
		failed: prometheus.NewDesc(name("pool_provisioning_failures_total"),
			"Failed tenant pool creations.", nil, nil),
		evictions: prometheus.NewDesc(name("pool_evictions_total"),
			"Tenant pools evicted by reason.", []string{"reason"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connections
	ch <- c.waiting
	ch <- c.maxConns
	ch <- c.active
	ch <- c.created
	ch <- c.failed
	ch <- c.evictions
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.registry.StatsAll() {
		ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(s.Active), s.Tenant, "active")
		ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(s.Idle), s.Tenant, "idle")
		ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(s.Total), s.Tenant, "total")
		ch <- prometheus.MustNewConstMetric(c.waiting, prometheus.GaugeValue, float64(s.Waiting), s.Tenant)
		ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(s.Max), s.Tenant)
	}

	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(c.registry.Count()))

	counters := c.registry.Counters()
	ch <- prometheus.MustNewConstMetric(c.created, prometheus.CounterValue, float64(counters.Created))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(counters.Failed))
	for _, reason := range evictReasons {
		ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(counters.Evicted[reason]), string(reason))
	}
}
