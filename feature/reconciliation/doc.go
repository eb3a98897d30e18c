// Package reconciliation exposes the reconciliation engine over HTTP.
//
// # HTTP Endpoints
//
//   - POST /reconciliation/run : Runs one reconciliation pass and returns its report.
//   - GET /reconciliation/status : Returns the provider connection state and the last report.
//   - POST /reconciliation/updates : Accepts a purchase update pushed by the provider
//     ({"response_code": 0, "purchases": [...]}). Responds 202 when routed into the
//     open session, 409 when no session is ready and 400 on a malformed body.
package reconciliation
