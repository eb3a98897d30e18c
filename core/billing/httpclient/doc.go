// Package httpclient implements billing.Client on top of the provider REST API
// using resty.
//
// Endpoints:
//
//	POST   /v1/accounts/{account}/sessions              open a session
//	GET    /v1/sessions/{session}/purchases?product_type=  query purchases
//	POST   /v1/sessions/{session}/purchases:acknowledge    acknowledge a token
//	DELETE /v1/sessions/{session}                          close the session
//
// Every response body carries "response_code" and "debug_message". Transport
// failures are mapped to NETWORK_ERROR (or SERVICE_TIMEOUT on deadline) so the
// caller sees a single *billing.ResponseError shape.
package httpclient
