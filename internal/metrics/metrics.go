package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors the blog handlers update.
type Metrics struct {
	Registry     *prometheus.Registry
	CacheLookups *prometheus.CounterVec
	PostsCreated prometheus.Counter
	Follows      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_page_cache_requests_total",
			Help: "Page cache lookups by result (hit or miss).",
		}, []string{"result"}),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_posts_created_total",
			Help: "Posts created through the create form.",
		}),
		Follows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_follows_total",
			Help: "Follow and unfollow requests by action.",
		}, []string{"action"}),
	}
	m.Registry.MustRegister(m.CacheLookups, m.PostsCreated, m.Follows)
	return m
}

func (m *Metrics) CacheHit()  { m.CacheLookups.WithLabelValues("hit").Inc() }
func (m *Metrics) CacheMiss() { m.CacheLookups.WithLabelValues("miss").Inc() }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
