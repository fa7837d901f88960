// Package middleware provides HTTP middleware for the chat proxy:
// request ID assignment, caller ID extraction, structured request logging,
// panic recovery, and CORS handling.
//
// Middleware composes outermost first:
//
//	handler = middleware.RecoveryMiddleware(logger)(
//		middleware.LoggingMiddleware(logger)(
//			middleware.CallerIDMiddleware(
//				middleware.RequestIDMiddleware(mux))))
package middleware
