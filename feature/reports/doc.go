// Package reports serves archived reconciliation run reports.
//
// Reports are written by the engine to object storage as
// <prefix>/<yyyy>/<mm>/<dd>/<run_id>.json. The feature is only enabled when
// storage archiving is configured.
//
// # HTTP Endpoints
//
//   - GET /reports : Lists report keys, newest first (supports ?date=yyyy/mm/dd).
//   - GET /reports/:runId : Returns one report, 404 when it does not exist.
package reports
