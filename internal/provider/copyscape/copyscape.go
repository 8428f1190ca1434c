// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

// Package copyscape is a client for the Copyscape plagiarism search API.
//
// Every request is signed with the account's username and API key and
// passes through a ratelimit.Limiter first. Unless told otherwise, all
// providers in a process share one limiter, so the service never sees more
// than one request per second from the process.
package copyscape

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/alan-mat/copyscape/internal/api"
	"github.com/alan-mat/copyscape/internal/http"
	"github.com/alan-mat/copyscape/internal/ratelimit"
)

const (
	Endpoint = "https://www.copyscape.com/api/"

	OperationSearch  = "csearch"
	OperationBalance = "balance"

	DefaultEncoding = "UTF-8"

	maxErrorBodyLen = 512
)

// Format selects the representation the service answers with.
type Format string

const (
	FormatXML  Format = "xml"
	FormatHTML Format = "html"
)

// Doer sends a single request. *http.Client is the default implementation.
type Doer interface {
	Do(ctx context.Context, req http.Request) (*http.Response, error)
}

type CopyscapeProvider struct {
	client  Doer
	limiter ratelimit.Limiter

	endpoint  string
	timeout   time.Duration
	userAgent string

	authLock sync.RWMutex
	username string
	apiKey   string
}

type Option func(*CopyscapeProvider)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(c Doer) Option {
	return func(p *CopyscapeProvider) {
		p.client = c
	}
}

// WithLimiter replaces the process-wide limiter for this provider.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(p *CopyscapeProvider) {
		p.limiter = l
	}
}

// WithEndpoint sets the base URL of the default transport.
// It has no effect together with WithHTTPClient.
func WithEndpoint(endpoint string) Option {
	return func(p *CopyscapeProvider) {
		p.endpoint = endpoint
	}
}

// WithTimeout sets the timeout of the default transport.
// It has no effect together with WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(p *CopyscapeProvider) {
		p.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header of the default transport.
// It has no effect together with WithHTTPClient.
func WithUserAgent(ua string) Option {
	return func(p *CopyscapeProvider) {
		p.userAgent = ua
	}
}

func New(username, apiKey string, opts ...Option) *CopyscapeProvider {
	p := &CopyscapeProvider{
		limiter:  ratelimit.Process(),
		endpoint: Endpoint,
		timeout:  http.DefaultTimeout,
		username: username,
		apiKey:   apiKey,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		clientOpts := []http.ClientOption{http.WithTimeout(p.timeout)}
		if p.userAgent != "" {
			clientOpts = append(clientOpts, http.WithUserAgent(p.userAgent))
		}
		p.client = http.NewClient(p.endpoint, clientOpts...)
	}

	return p
}

// SetAuth replaces the credentials used for subsequent requests.
func (p *CopyscapeProvider) SetAuth(username, apiKey string) *CopyscapeProvider {
	p.authLock.Lock()
	defer p.authLock.Unlock()

	p.username = username
	p.apiKey = apiKey
	return p
}

type searchOptions struct {
	encoding       string
	fullComparison *string
}

type SearchOption func(*searchOptions)

// WithFullComparison asks the service for a full text-on-text comparison
// against the given number of results.
func WithFullComparison(n string) SearchOption {
	return func(o *searchOptions) {
		o.fullComparison = &n
	}
}

// WithEncoding sets the IANA character set of the text passed to
// TextSearch. It is ignored by URL searches.
func WithEncoding(enc string) SearchOption {
	return func(o *searchOptions) {
		o.encoding = enc
	}
}

func newSearchOptions(opts []SearchOption) searchOptions {
	o := searchOptions{encoding: DefaultEncoding}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CheckBalance returns the number of searches left on the account.
func (p *CopyscapeProvider) CheckBalance(ctx context.Context) (*api.BalanceResponse, error) {
	body, err := p.request(ctx, OperationBalance, nil, nil, FormatXML)
	if err != nil {
		return nil, err
	}
	return decodeAs[api.BalanceResponse](body)
}

// URLSearch looks for copies of the page at u.
func (p *CopyscapeProvider) URLSearch(ctx context.Context, u string, opts ...SearchOption) (*api.SearchResponse, error) {
	body, err := p.request(ctx, OperationSearch, urlSearchParams(u, newSearchOptions(opts)), nil, FormatXML)
	if err != nil {
		return nil, err
	}
	return decodeAs[api.SearchResponse](body)
}

// TextSearch looks for copies of text. The text is sent in the request body.
func (p *CopyscapeProvider) TextSearch(ctx context.Context, text string, opts ...SearchOption) (*api.SearchResponse, error) {
	params, form := textSearchParams(text, newSearchOptions(opts))
	body, err := p.request(ctx, OperationSearch, params, form, FormatXML)
	if err != nil {
		return nil, err
	}
	return decodeAs[api.SearchResponse](body)
}

// URLSearchHTML is URLSearch with the results rendered as an HTML page.
func (p *CopyscapeProvider) URLSearchHTML(ctx context.Context, u string, opts ...SearchOption) (*goquery.Document, error) {
	body, err := p.request(ctx, OperationSearch, urlSearchParams(u, newSearchOptions(opts)), nil, FormatHTML)
	if err != nil {
		return nil, err
	}
	return decodeHTML(body)
}

// TextSearchHTML is TextSearch with the results rendered as an HTML page.
func (p *CopyscapeProvider) TextSearchHTML(ctx context.Context, text string, opts ...SearchOption) (*goquery.Document, error) {
	params, form := textSearchParams(text, newSearchOptions(opts))
	body, err := p.request(ctx, OperationSearch, params, form, FormatHTML)
	if err != nil {
		return nil, err
	}
	return decodeHTML(body)
}

func urlSearchParams(u string, o searchOptions) url.Values {
	params := url.Values{}
	params.Set("q", u)
	if o.fullComparison != nil {
		params.Set("c", *o.fullComparison)
	}
	return params
}

func textSearchParams(text string, o searchOptions) (url.Values, url.Values) {
	params := url.Values{}
	params.Set("e", o.encoding)
	if o.fullComparison != nil {
		params.Set("c", *o.fullComparison)
	}

	form := url.Values{}
	form.Set("t", text)
	return params, form
}

// request waits for a free slot, signs and sends the request, and returns
// the body of a successful response.
func (p *CopyscapeProvider) request(ctx context.Context, operation string, params, form url.Values, format Format) ([]byte, error) {
	switch format {
	case FormatXML, FormatHTML:
	default:
		return nil, ErrUnsupportedFormat{Format: string(format)}
	}

	query := url.Values{}
	p.authLock.RLock()
	query.Set("u", p.username)
	query.Set("k", p.apiKey)
	p.authLock.RUnlock()
	query.Set("o", operation)
	for k, v := range params {
		query[k] = v
	}
	query.Set("f", string(format))

	method := http.MethodGet
	if len(form) > 0 {
		method = http.MethodPost
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request slot: %w", err)
	}

	reqID := uuid.NewString()
	slog.Debug("sending copyscape request", "request_id", reqID, "operation", operation, "method", method, "format", format)

	resp, err := p.client.Do(ctx, http.Request{
		Method: method,
		Query:  query,
		Form:   form,
	})
	if err != nil {
		slog.Error("copyscape request failed", "request_id", reqID, "err", err)
		return nil, ErrTransport{Err: err}
	}

	if !resp.Successful() {
		body := resp.Body
		// truncate error responses
		if len(body) > maxErrorBodyLen {
			body = body[:maxErrorBodyLen]
		}
		slog.Error("copyscape returned an error status", "request_id", reqID, "status", resp.StatusCode)
		return nil, ErrTransport{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	slog.Debug("received copyscape response", "request_id", reqID, "status", resp.StatusCode, "bytes", len(resp.Body))
	return resp.Body, nil
}
