package httpx

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// FailureKind buckets fetch failures for the backoff tracker.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureSSL
	FailureRateLimited
	FailureTransport
	FailureStatus
)

func (k FailureKind) String() string {
	switch k {
	case FailureSSL:
		return "ssl"
	case FailureRateLimited:
		return "rate-limited"
	case FailureTransport:
		return "transport"
	case FailureStatus:
		return "status"
	default:
		return "none"
	}
}

// Error is a classified fetch failure. For non-2xx responses the body is
// still returned to the caller so explicit provider error markers can be
// inspected.
type Error struct {
	Kind   FailureKind
	Status int
	URL    string
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) FailureKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FailureNone
}

// Fetcher is the one primitive every provider calls through. Implementations
// must honor the context and classify failures as *Error.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Client is a thin wrapper around http.Client with fixed connect and read
// timeouts and JSON-oriented defaults.
type Client struct {
	http      *http.Client
	userAgent string
}

// New builds a Client with the given timeout applied both to dialing and to
// the whole exchange.
func New(timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		ForceAttemptHTTP2:   true,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: timeout,
	}
	return &Client{
		http:      &http.Client{Timeout: timeout, Transport: transport},
		userAgent: "quote-engine/1.0",
	}
}

// Get fetches url and returns the response body. Non-2xx responses return
// both the body and a classified *Error.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: FailureTransport, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: classifyTransport(err), URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, &Error{Kind: FailureTransport, URL: url, Err: readErr}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return body, &Error{Kind: FailureRateLimited, Status: resp.StatusCode, URL: url}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, &Error{Kind: FailureStatus, Status: resp.StatusCode, URL: url}
	}
	return body, nil
}

// classifyTransport separates TLS handshake problems from everything else
// (DNS, timeout, connection reset), which get the shorter cool-down.
func classifyTransport(err error) FailureKind {
	var (
		certVerify *tls.CertificateVerificationError
		recordErr  tls.RecordHeaderError
		hostErr    x509.HostnameError
		caErr      x509.UnknownAuthorityError
		invalidErr x509.CertificateInvalidError
	)
	if errors.As(err, &certVerify) || errors.As(err, &recordErr) ||
		errors.As(err, &hostErr) || errors.As(err, &caErr) || errors.As(err, &invalidErr) {
		return FailureSSL
	}
	msg := err.Error()
	if strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:") {
		return FailureSSL
	}
	return FailureTransport
}
