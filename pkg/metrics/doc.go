// Package metrics exposes crudgen counters and histograms in the Prometheus
// text format.
//
//	reg := metrics.NewRegistry()
//	crud := metrics.NewCRUD(reg)          // a service.Observer
//	r.Use(metrics.NewHTTP(reg).Middleware) // per-route HTTP metrics
//	r.Handle("/metrics", reg.Handler())
//
// Label values are written in sorted order so scrapes are stable.
package metrics
