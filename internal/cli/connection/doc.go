// Package connection is the storefront-cli client for the storefront HTTP API.
//
// Every API response is wrapped in the server envelope
// {code, message, request_id, timestamp, data}. Client.Do unwraps data
// into the caller's target and turns error envelopes into *APIError.
package connection
