// Package billing defines the ports through which the reconciler talks to the
// third-party billing provider.
//
// The provider is consumed only through Client and Session: open a session
// (registering a Listener for pushed updates), query purchases of one product
// type, acknowledge a purchase token, close. Every provider answer carries a
// ResponseCode; OK is the only success code and every other code surfaces as a
// *ResponseError.
//
// Implementations live in sub-packages: httpclient talks to the provider REST API,
// push delivers provider-pushed purchase updates from NATS, and mocks holds
// testify mocks for unit tests.
package billing
