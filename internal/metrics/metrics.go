// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors groups the counters the leave service updates.
type Collectors struct {
	Logins        *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	Applications  *prometheus.CounterVec
	Reviews       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration, which keeps tests independent of the global registry.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leaveportal",
			Name:      "logins_total",
			Help:      "Login attempts by role and result.",
		}, []string{"role", "result"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leaveportal",
			Name:      "registrations_total",
			Help:      "Accounts registered by role.",
		}, []string{"role"}),
		Applications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leaveportal",
			Name:      "applications_total",
			Help:      "Leave applications submitted, split by whether a document was attached.",
		}, []string{"attachment"}),
		Reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leaveportal",
			Name:      "reviews_total",
			Help:      "Decisions recorded by HOD reviewers.",
		}, []string{"decision"}),
	}
	if reg != nil {
		reg.MustRegister(c.Logins, c.Registrations, c.Applications, c.Reviews)
	}
	return c
}
