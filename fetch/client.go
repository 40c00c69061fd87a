// Package fetch provides the plain-HTTP page fetcher shared by the http
// engine and the document text scraper.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	tls "github.com/refraction-networking/utls"

	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/ratelimit"
)

// chromeH1Spec is Chrome's ClientHello with ALPN cut down to http/1.1: the
// server must never pick h2, which Go's http.Transport cannot drive over a
// utls connection. Built once at startup; UTLSIdToSpec fails only for
// unknown hello ids.
var chromeH1Spec = mustChromeH1Spec()

func mustChromeH1Spec() tls.ClientHelloSpec {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		panic(fmt.Sprintf("fetch: chrome hello spec: %v", err))
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	return spec
}

// Client fetches HTML pages with a browser-like profile: Chrome TLS
// fingerprint, desktop headers, capped bodies. When a rate limiter is
// attached, every request waits on it first, so callers cannot bypass the
// configured page-load interval.
type Client struct {
	http    *resty.Client
	maxBody int64
}

// NewClient builds a Client from config. limiter may be nil.
func NewClient(cfg config.HTTPConfig, limiter *ratelimit.Limiter) *Client {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("fetch: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}

	c := resty.New().
		SetTransport(transport).
		SetTimeout(cfg.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetHeader("Accept-Encoding", "identity")

	if limiter != nil {
		c.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &Client{http: c, maxBody: cfg.MaxBodySize}
}

// Page is one fetched HTML page.
type Page struct {
	HTML       string
	FinalURL   string
	StatusCode int
}

// GetHTML fetches url and returns its HTML. Error statuses and non-HTML
// content types are failures; redirects are followed and FinalURL reports
// where the page actually came from.
func (c *Client) GetHTML(ctx context.Context, pageURL string) (*Page, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", pageURL, err)
	}

	ct := resp.Header().Get("Content-Type")
	if resp.StatusCode() >= 400 || !isHTMLContentType(ct) {
		return nil, fmt.Errorf("fetch %s: status %d, content-type %q",
			pageURL, resp.StatusCode(), ct)
	}

	finalURL := pageURL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}

	return &Page{
		HTML:       string(body),
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode(),
	}, nil
}

// isHTMLContentType reports whether a Content-Type header names an HTML
// document.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

// ResolveURL resolves href against base. Absolute hrefs pass through; an
// unparsable base or href comes back unchanged.
func ResolveURL(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
