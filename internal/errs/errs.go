// Package errs defines the API's error types and utilities.
//
// Every error that reaches a client is rendered from an HTTPError so the
// failure body always has the same `{success:false, data:<message>}` shape
// as the success envelopes, plus machine-friendly code and field details.
package errs
