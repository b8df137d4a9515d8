package registry

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/dnscache"
	"go.trai.ch/zerr"
)

const (
	dnsRefreshInterval = 5 * time.Minute
	httpClientTimeout  = 5 * time.Minute
)

// newHTTPClient returns a client whose dialer resolves hosts through a
// periodically refreshed DNS cache.
func newHTTPClient() *http.Client {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(dnsRefreshInterval)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Timeout: httpClientTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := resolver.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				var lastErr error
				for _, ip := range ips {
					conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						return conn, nil
					}
					lastErr = err
				}
				return nil, zerr.With(zerr.Wrap(lastErr, "failed to dial any resolved address"), "host", host)
			},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   16,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
