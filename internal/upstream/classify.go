package upstream

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/af-corp/campaign-relay/internal/types"
)

// Classify maps a transport failure to a client-facing error kind. Typed
// errors from net, tls and x509 are checked first; the error text is only
// inspected when none of them match.
func Classify(err error) types.ErrorKind {
	if err == nil {
		return ""
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return types.KindConnectionRefused
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return types.KindTimeout
		}
		return types.KindDNS
	}

	if isCertificateError(err) {
		return types.KindSSL
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.KindTimeout
	}

	return classifyText(err.Error())
}

func isCertificateError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	var recordErr tls.RecordHeaderError
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &recordErr)
}

// classifyText is the substring fallback. Order matters: a refused
// connection reported through a timeout wrapper is still a refusal.
func classifyText(msg string) types.ErrorKind {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "econnrefused"), strings.Contains(msg, "connection refused"):
		return types.KindConnectionRefused
	case strings.Contains(msg, "enotfound"), strings.Contains(msg, "no such host"):
		return types.KindDNS
	case strings.Contains(msg, "certificate"), strings.Contains(msg, "x509"),
		strings.Contains(msg, "tls:"), strings.Contains(msg, "ssl"):
		return types.KindSSL
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"),
		strings.Contains(msg, "deadline exceeded"):
		return types.KindTimeout
	default:
		return types.KindAPI
	}
}

// transportMessage is the caller-facing text for a transport failure kind.
func transportMessage(kind types.ErrorKind) string {
	switch kind {
	case types.KindConnectionRefused:
		return "Connection refused by upstream API"
	case types.KindDNS:
		return "DNS lookup failed for upstream API host"
	case types.KindSSL:
		return "SSL certificate error while connecting to upstream API"
	case types.KindTimeout:
		return "Upstream API request timed out"
	default:
		return "Failed to connect to upstream API"
	}
}

// transportError wraps err as a classified *Error.
func transportError(err error) *Error {
	kind := Classify(err)
	return newError(kind, transportMessage(kind), err)
}
