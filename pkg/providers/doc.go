// Package providers contains the shared HTTP client used by all upstream
// provider packages (questrade, alpaca, yahoo, feeds).
//
// Every provider client follows the same skeleton: validate inputs locally,
// issue the remote call under a bounded retry policy, verify the response
// shape, and surface one of three structured error kinds (configuration,
// invalid input, upstream failure). This package owns the transport half of
// that skeleton: the HTTP client, transient-fault classification, response
// caching, and the retry wrapper.
//
// Transient classification is uniform across all providers: connection
// errors, timeouts, 408, 429, and 5xx responses are retried; everything
// else fails immediately. Classification happens here at the transport
// boundary, never by inspecting error message text.
package providers
