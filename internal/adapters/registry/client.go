// Package registry implements the RegistryClient port against an npm-compatible registry.
package registry

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.RegistryClient = (*Client)(nil)

const (
	userAgent = "lpm/1"
	// acceptPackument asks for the abbreviated install metadata document.
	acceptPackument = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8, */*"

	defaultInitialInterval = 200 * time.Millisecond
	defaultMaxInterval     = 5 * time.Second
)

// Client talks to one registry. Packuments are fetched at most once per
// process and revalidated against an on-disk cache with ETags.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	cacheDir        string
	retries         int
	initialInterval time.Duration
	breakers        *breakers

	group      singleflight.Group
	mu         sync.RWMutex
	packuments map[string]*packument
}

// New creates a Client configured from settings.
func New(settings domain.Settings) *Client {
	return newClientWithHTTP(settings.Registry, settings.CacheDir, settings.Retries, newHTTPClient())
}

// newClientWithHTTP creates a Client with a custom http client (used for testing).
func newClientWithHTTP(baseURL, cacheDir string, retries int, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = domain.DefaultRegistry
	}
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		httpClient:      client,
		cacheDir:        cacheDir,
		retries:         retries,
		initialInterval: defaultInitialInterval,
		breakers:        newBreakers(),
		packuments:      make(map[string]*packument),
	}
}

// ListVersions returns every published version of name in ascending order.
// Version keys that are not valid SemVer are ignored.
func (c *Client) ListVersions(ctx context.Context, name string) ([]domain.Version, error) {
	doc, err := c.packument(ctx, name)
	if err != nil {
		return nil, err
	}
	return doc.versionList(), nil
}

// GetMetadata returns the dependencies and tarball of name@version.
func (c *Client) GetMetadata(ctx context.Context, name string, version domain.Version) (*domain.PackageMetadata, error) {
	doc, err := c.packument(ctx, name)
	if err != nil {
		return nil, err
	}
	return doc.metadata(name, version)
}

// DistTags returns the dist-tags of name, e.g. "latest".
func (c *Client) DistTags(ctx context.Context, name string) (map[string]domain.Version, error) {
	doc, err := c.packument(ctx, name)
	if err != nil {
		return nil, err
	}
	return doc.distTags(), nil
}

// FetchTarball streams the archive at ref.URL. The caller must close the body.
// When the server sends a Digest header its value is reported alongside.
func (c *Client) FetchTarball(ctx context.Context, ref domain.TarballRef) (*domain.Tarball, error) {
	resp, err := c.get(ctx, ref.URL, nil)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, domain.Annotate(domain.ErrNotFound, "url", ref.URL)
	default:
		_ = resp.Body.Close()
		return nil, domain.Annotate(domain.ErrNetwork, "url", ref.URL, "status", resp.StatusCode)
	}

	return &domain.Tarball{
		Body:   resp.Body,
		Digest: parseDigestHeader(resp.Header.Values("Digest")),
	}, nil
}

// BreakerStates reports whether each contacted host's circuit is open or closed.
func (c *Client) BreakerStates() map[string]string {
	return c.breakers.states()
}

// statusError marks a response status worth retrying.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// get performs a GET with retries on transport errors, 429 and 5xx.
// Any other status is returned to the caller with its body open.
func (c *Client) get(ctx context.Context, rawURL string, header http.Header) (*http.Response, error) {
	host := hostOf(rawURL)
	breaker := c.breakers.get(host)

	var (
		resp      *http.Response
		permanent error
	)
	operation := func() error {
		err := breaker.Call(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
			if err != nil {
				permanent = zerr.With(zerr.Wrap(domain.ErrRegistryResponseInvalid, err.Error()), "url", rawURL)
				return nil
			}
			req.Header.Set("User-Agent", userAgent)
			for k, vs := range header {
				for _, v := range vs {
					req.Header.Add(k, v)
				}
			}

			r, err := c.httpClient.Do(req)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					permanent = ctxErr
					return nil
				}
				return err
			}
			if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= http.StatusInternalServerError {
				_ = r.Body.Close()
				return &statusError{code: r.StatusCode}
			}
			resp = r
			return nil
		}, 0)
		if errors.Is(err, circuit.ErrBreakerOpen) {
			permanent = domain.Annotate(domain.ErrNetwork, "host", host, "reason", "circuit open")
			return nil
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval
	policy.MaxInterval = defaultMaxInterval
	policy.MaxElapsedTime = 0
	policy.Reset()

	//nolint:gosec // retries is clamped to be non-negative
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.retries)), ctx))
	if permanent != nil {
		if errors.Is(permanent, context.Canceled) || errors.Is(permanent, context.DeadlineExceeded) {
			return nil, zerr.With(zerr.Wrap(permanent, "registry request canceled"), "url", rawURL)
		}
		return nil, permanent
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, zerr.With(zerr.Wrap(ctxErr, "registry request canceled"), "url", rawURL)
		}
		netErr := zerr.With(zerr.Wrap(domain.ErrNetwork, err.Error()), "url", rawURL)
		var se *statusError
		if errors.As(err, &se) {
			netErr = zerr.With(netErr, "status", se.code)
		}
		return nil, zerr.With(netErr, "attempts", c.retries+1)
	}
	return resp, nil
}

// parseDigestHeader reads an RFC 3230 Digest header such as "sha-512=<base64>".
// It returns the strongest supported digest, or the zero value.
func parseDigestHeader(values []string) domain.Integrity {
	var best domain.Integrity
	rank := map[string]int{domain.AlgoSHA1: 1, domain.AlgoSHA256: 2, domain.AlgoSHA384: 3, domain.AlgoSHA512: 4}
	for _, value := range values {
		for part := range strings.SplitSeq(value, ",") {
			algo, encoded, ok := strings.Cut(strings.TrimSpace(part), "=")
			if !ok {
				continue
			}
			algo = strings.ReplaceAll(strings.ToLower(algo), "-", "")
			if rank[algo] == 0 || rank[algo] <= rank[best.Algorithm] {
				continue
			}
			digest, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				continue
			}
			best = domain.Integrity{Algorithm: algo, Digest: digest}
		}
	}
	return best
}

// packumentURL returns the document URL for name. Scoped names keep their
// "@" and escape the slash, as registries expect.
func (c *Client) packumentURL(name string) string {
	return c.baseURL + "/" + url.PathEscape(name)
}
