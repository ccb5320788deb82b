// Package httpserver provides a reusable HTTP server implementation with common
// functionality for the proof vault's API surface.
//
// The httpserver package implements a base HTTP server with standard health
// endpoints, graceful shutdown capabilities, metrics, and flexible routing.
// The vault service registers its routes through the RouteRegistrar interface
// and inherits the operational plumbing.
//
// # Key Components
//
//   - BaseServer: Core HTTP server with health checks, metrics, and lifecycle management
//   - RouteRegistrar: Interface for components to register their routes with the server
//
// # Health and Diagnostics
//
// All servers built with BaseServer automatically include:
//
//   - Liveness Check: Simple endpoint to verify server is running (/livez)
//   - Readiness Check: Endpoint indicating if server is ready to accept requests (/readyz)
//   - Drain Control: Endpoints to prepare for graceful shutdown (/drain, /undrain)
//   - Metrics: Optional Prometheus-compatible metrics endpoint on a separate listener
//   - Profiling: Optional pprof debugging endpoints when enabled
//
// # Usage Example
//
//	svc, _ := services.NewVaultService(v, backend, cfg)
//	srv, _ := httpserver.New(serverConfig, svc)
//	srv.RunInBackground()
//	defer srv.Shutdown()
package httpserver
