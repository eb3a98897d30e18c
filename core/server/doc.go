// Package server holds the HTTP server configuration.
//
// While the cmd package handles the server startup, this package defines the
// configuration structure for the listen port, the API key protecting every route,
// and whether a reconciliation pass runs when the service boots (the equivalent of
// an application launch).
package server
