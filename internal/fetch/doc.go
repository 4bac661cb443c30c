// Package fetch retrieves listing pages over HTTP.
//
// Client is the only component that touches the network. It returns the
// body of a 2xx response as UTF-8 text and fails otherwise: non-2xx
// statuses, connection errors, oversized bodies and bodies that are not
// valid UTF-8 are all errors, and the crawler treats every one of them as
// fatal.
//
// Requests can optionally be routed through a SOCKS5 proxy and retried
// with exponential backoff. Retries are off by default.
package fetch
