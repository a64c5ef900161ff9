// Package server provides the standalone gateway mode: an HTTP reverse
// proxy that forwards traffic to an upstream inference service while the
// observability plugin measures every request.
//
// # Basic Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides("drishti.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p, err := plugin.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.NewServer(cfg, p)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Start blocks until the context is cancelled, a SIGTERM or SIGINT
// arrives, or Shutdown is called. In-flight requests drain up to the
// configured shutdown timeout before connections are forced closed.
//
// # Routes
//
// The exposition endpoints are mounted at their configured paths and
// bypass measurement; every other path is measured and proxied upstream.
package server
