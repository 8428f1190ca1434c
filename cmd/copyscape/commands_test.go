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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alan-mat/copyscape/internal/api"
	"github.com/alan-mat/copyscape/internal/config"
	"github.com/alan-mat/copyscape/internal/http"
	"github.com/alan-mat/copyscape/internal/provider/copyscape"
	"github.com/alan-mat/copyscape/internal/ratelimit"
)

const searchFixture = `<response><query>q</query><count>1</count>` +
	`<result><index>1</index><url>http://x</url><title>T</title><textsnippet>s</textsnippet>` +
	`<htmlsnippet>h</htmlsnippet><minwordsmatched>3</minwordsmatched></result></response>`

// routeDoer answers with the body registered for the request's q param, or
// with fallback.
type routeDoer struct {
	mu       sync.Mutex
	routes   map[string]string
	fallback string
	reqs     []http.Request
}

func (d *routeDoer) Do(ctx context.Context, req http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reqs = append(d.reqs, req)

	body, ok := d.routes[req.Query.Get("q")]
	if !ok {
		body = d.fallback
	}
	return &http.Response{StatusCode: 200, Body: []byte(body)}, nil
}

func newEnv(d *routeDoer, in string) (*runEnv, *bytes.Buffer) {
	conf := config.Default()
	conf.Username = "user"
	conf.APIKey = "key"

	out := &bytes.Buffer{}
	return &runEnv{
		provider: copyscape.New(conf.Username, conf.APIKey,
			copyscape.WithHTTPClient(d),
			copyscape.WithLimiter(ratelimit.Noop),
		),
		conf: &conf,
		in:   strings.NewReader(in),
		out:  out,
	}, out
}

func TestBalanceCmd(t *testing.T) {
	env, out := newEnv(&routeDoer{fallback: `<remaining><total>100</total><today>5</today></remaining>`}, "")

	if err := (&balanceCmd{}).run(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got api.BalanceResponse
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if diff := cmp.Diff(api.BalanceResponse{Total: 100, Today: 5}, got); diff != "" {
		t.Errorf("balance mismatch (-expected +got):\n%s", diff)
	}
}

func TestTextCmdStdin(t *testing.T) {
	d := &routeDoer{fallback: searchFixture}
	env, out := newEnv(d, "text from stdin")
	full := "2"

	cmd := &textCmd{File: "-", Encoding: "UTF-8", Full: &full}
	if err := cmd.run(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := d.reqs[0]
	if got := req.Form.Get("t"); got != "text from stdin" {
		t.Errorf("expected text from stdin, got '%s'", got)
	}
	if got := req.Query.Get("c"); got != "2" {
		t.Errorf("expected query param 'c' to be '2', got '%s'", got)
	}
	if !strings.Contains(out.String(), `"url": "http://x"`) {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestTextCmdEmpty(t *testing.T) {
	d := &routeDoer{fallback: searchFixture}
	env, _ := newEnv(d, "   \n")

	if err := (&textCmd{File: "-"}).run(context.Background(), env); err == nil {
		t.Error("expected error for empty text")
	}
	if len(d.reqs) != 0 {
		t.Errorf("expected no requests, got %d", len(d.reqs))
	}
}

func TestURLCmdHTML(t *testing.T) {
	d := &routeDoer{fallback: `<html><body><p>report</p></body></html>`}
	env, out := newEnv(d, "")

	if err := (&urlCmd{URL: "http://example.com", HTML: true}).run(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "<p>report</p>") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestBatchCmd(t *testing.T) {
	d := &routeDoer{
		routes: map[string]string{
			"http://broken.example": `<foo/>`,
		},
		fallback: searchFixture,
	}
	env, out := newEnv(d, "")
	env.conf.Batch.Concurrency = 2

	file := filepath.Join(t.TempDir(), "urls.txt")
	contents := "# pages\nhttp://b.example\n\nhttp://broken.example\n"
	if err := os.WriteFile(file, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write url file: %v", err)
	}

	cmd := &batchCmd{URLs: []string{"http://a.example"}, File: file}
	if err := cmd.run(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []batchResult
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not json: %v", err)
	}

	var urls []string
	for _, r := range got {
		urls = append(urls, r.URL)
	}
	expected := []string{"http://a.example", "http://b.example", "http://broken.example"}
	if diff := cmp.Diff(expected, urls); diff != "" {
		t.Errorf("url order mismatch (-expected +got):\n%s", diff)
	}

	if got[0].Response == nil || got[0].Response.Count != 1 {
		t.Errorf("expected a response for '%s', got %+v", got[0].URL, got[0])
	}
	if got[2].Error == "" || got[2].Response != nil {
		t.Errorf("expected an error for '%s', got %+v", got[2].URL, got[2])
	}
	if len(d.reqs) != 3 {
		t.Errorf("expected 3 requests, got %d", len(d.reqs))
	}
}

func TestBatchCmdNoURLs(t *testing.T) {
	env, _ := newEnv(&routeDoer{}, "")
	if err := (&batchCmd{}).run(context.Background(), env); err == nil {
		t.Error("expected error without urls")
	}
}

func TestNewLimiter(t *testing.T) {
	conf := config.Default()

	l, closeFn, err := newLimiter(&conf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()
	if l != ratelimit.Process() {
		t.Error("default throttle is not the process limiter")
	}

	conf.Throttle.Backend = config.ThrottleBackendRedis
	l, closeRedis, err := newLimiter(&conf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeRedis()
	if _, ok := l.(*ratelimit.RedisLimiter); !ok {
		t.Errorf("expected *ratelimit.RedisLimiter, got %T", l)
	}
}
