package storage

import (
	"net"
	"net/http"
	"time"
)

// TransportOptions collects the tunables for the HTTP transport drivers use
// to reach their remote backends.
type TransportOptions struct {
	Connect          time.Duration
	ConnKeepAlive    time.Duration
	ExpectContinue   time.Duration
	IdleConn         time.Duration
	MaxAllIdleConns  int
	MaxHostIdleConns int
	ResponseHeader   time.Duration
	TLSHandshake     time.Duration
}

// Transport returns an http.RoundTripper with the given options applied.
func Transport(opts TransportOptions) http.RoundTripper {
	return &http.Transport{
		ResponseHeaderTimeout: opts.ResponseHeader,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: opts.ConnKeepAlive,
			Timeout:   opts.Connect,
		}).DialContext,
		MaxIdleConns:          opts.MaxAllIdleConns,
		IdleConnTimeout:       opts.IdleConn,
		TLSHandshakeTimeout:   opts.TLSHandshake,
		MaxIdleConnsPerHost:   opts.MaxHostIdleConns,
		ExpectContinueTimeout: opts.ExpectContinue,
	}
}

// DefaultTransport returns the transport drivers use unless configured
// otherwise.
func DefaultTransport() http.RoundTripper {
	return Transport(TransportOptions{
		Connect:          30 * time.Second,
		ConnKeepAlive:    30 * time.Second,
		ExpectContinue:   1 * time.Second,
		IdleConn:         90 * time.Second,
		MaxAllIdleConns:  100,
		MaxHostIdleConns: 100,
		ResponseHeader:   10 * time.Second,
		TLSHandshake:     10 * time.Second,
	})
}
