// Package middleware groups the HTTP middleware of the Fiber application.
//
//   - auth: API key validation protecting every non-public route.
//   - rayid: a request id (RayID) per request, stored in the context locals and
//     echoed in the X-Ray-ID response header for tracing.
//
// rayid must be registered first so every later log line carries the id.
package middleware
