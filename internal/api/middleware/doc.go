// Package middleware holds the gin middleware in front of the terminal API.
//
//   - CORS: gin-contrib/cors with configurable origins; a "*" origin echoes
//     the caller so credentials and WebSocket upgrades keep working.
//   - RateLimit: per-IP token buckets from x/time/rate; idle clients are
//     swept after a few minutes.
//   - GlobalRateLimit: one bucket shared by every client.
//   - RequestLog: request ids and zap access logs.
//
//	router.Use(middleware.RequestLog(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
