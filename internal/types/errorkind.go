package types

import "net/http"

// ErrorKind is the client-facing failure class carried in error envelopes.
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindConfiguration     ErrorKind = "CONFIGURATION_ERROR"
	KindConnectionRefused ErrorKind = "CONNECTION_REFUSED"
	KindDNS               ErrorKind = "DNS_ERROR"
	KindSSL               ErrorKind = "SSL_ERROR"
	KindTimeout           ErrorKind = "TIMEOUT"
	KindAPI               ErrorKind = "API_ERROR"
	KindUpstream          ErrorKind = "UPSTREAM_ERROR"
	KindFormat            ErrorKind = "FORMAT_ERROR"
)

// HTTPStatus returns the status code an envelope of this kind is written with.
// Only caller mistakes map to 400; everything else is a 500.
func (k ErrorKind) HTTPStatus() int {
	if k == KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Transport reports whether the kind describes a failure to reach the upstream.
func (k ErrorKind) Transport() bool {
	switch k {
	case KindConnectionRefused, KindDNS, KindSSL, KindTimeout, KindAPI:
		return true
	default:
		return false
	}
}

// Retryable reports whether a caller may reasonably retry the same request.
func (k ErrorKind) Retryable() bool {
	return k.Transport() || k == KindUpstream
}

func ParseErrorKind(s string) (ErrorKind, bool) {
	switch ErrorKind(s) {
	case KindValidation, KindConfiguration, KindConnectionRefused, KindDNS, KindSSL,
		KindTimeout, KindAPI, KindUpstream, KindFormat:
		return ErrorKind(s), true
	default:
		return "", false
	}
}
