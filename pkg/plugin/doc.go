// Package plugin wires the whole pipeline together for host services:
// configuration, logging, the metric registry and collector, tenant
// resolution, service classification, payload extraction, the request
// interceptor, the exposition endpoints, the quota store, and resource
// sampling.
//
// Typical embedding:
//
//	p, err := plugin.NewFromFile("drishti.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := p.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//
//	mux := http.NewServeMux()
//	p.RegisterEndpoints(mux)
//	mux.Handle("/", p.Middleware(apiHandler))
package plugin
