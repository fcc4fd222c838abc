// Package middleware holds the Echo middleware of the VacQ API.
//
// The global chain tags requests, traces them, logs them, recovers panics,
// sets security and CORS headers, limits body size and rate limits by
// client IP. Route chains add Clerk authentication and the admin role check
// used by hospital writes.
package middleware
