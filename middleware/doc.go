// Package middleware provides composable wrappers around the client's
// request exchange.
//
// Each middleware wraps the next handler in the chain, allowing pre- and
// post-processing of outbound requests:
//
//	c := client.New(client.WithMiddleware(
//	    middleware.Recover(),
//	    middleware.RequestID(),
//	    middleware.Logging(middleware.NewSlogLogger(log)),
//	))
//
// Built-in middleware:
//
//   - Recover: catches panics and converts them to internal errors
//   - RequestID: injects unique request IDs into the context
//   - Timeout: enforces per-call deadlines
//   - Logging: logs call details and timing
//   - RateLimit: bounds outbound call rate
//   - SizeLimit: rejects oversized request payloads
//   - OTel: OpenTelemetry tracing and metrics
//
// DefaultStack bundles the first three for common use.
package middleware
