// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation for protected endpoints.
//   - rayid: Generates a unique request id (RayID) for every incoming request,
//     stores it in the context and echoes it in the response headers.
//
// Register rayid first so every later log line can carry the id.
package middleware
