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
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/alan-mat/copyscape/internal/api"
	"github.com/alan-mat/copyscape/internal/config"
	"github.com/alan-mat/copyscape/internal/provider/copyscape"
)

type runEnv struct {
	provider *copyscape.CopyscapeProvider
	conf     *config.Config

	in  io.Reader
	out io.Writer
}

type command interface {
	run(ctx context.Context, env *runEnv) error
}

type balanceCmd struct{}

func (c *balanceCmd) run(ctx context.Context, env *runEnv) error {
	balance, err := env.provider.CheckBalance(ctx)
	if err != nil {
		return err
	}
	return writeJSON(env.out, balance)
}

type urlCmd struct {
	URL  string  `arg:"positional,required" help:"address of the page to check"`
	Full *string `arg:"--full" help:"compare the full text against the top N results"`
	HTML bool    `arg:"--html" help:"print the HTML report instead of JSON"`
}

func (c *urlCmd) run(ctx context.Context, env *runEnv) error {
	opts := searchOpts(c.Full, "")

	if c.HTML {
		doc, err := env.provider.URLSearchHTML(ctx, c.URL, opts...)
		if err != nil {
			return err
		}
		return writeHTML(env.out, doc)
	}

	resp, err := env.provider.URLSearch(ctx, c.URL, opts...)
	if err != nil {
		return err
	}
	return writeJSON(env.out, resp)
}

type textCmd struct {
	File     string  `arg:"positional" default:"-" help:"file holding the text, - reads stdin"`
	Encoding string  `arg:"--encoding,-e" default:"UTF-8" help:"IANA character set of the text"`
	Full     *string `arg:"--full" help:"compare the full text against the top N results"`
	HTML     bool    `arg:"--html" help:"print the HTML report instead of JSON"`
}

func (c *textCmd) run(ctx context.Context, env *runEnv) error {
	text, err := c.readText(env.in)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("text must not be empty")
	}

	opts := searchOpts(c.Full, c.Encoding)

	if c.HTML {
		doc, err := env.provider.TextSearchHTML(ctx, text, opts...)
		if err != nil {
			return err
		}
		return writeHTML(env.out, doc)
	}

	resp, err := env.provider.TextSearch(ctx, text, opts...)
	if err != nil {
		return err
	}
	return writeJSON(env.out, resp)
}

func (c *textCmd) readText(stdin io.Reader) (string, error) {
	if c.File == "" || c.File == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(c.File)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}

type batchCmd struct {
	URLs []string `arg:"positional" help:"addresses of the pages to check"`
	File string   `arg:"--file,-f" help:"file with one address per line"`
	Full *string  `arg:"--full" help:"compare the full text against the top N results"`
}

type batchResult struct {
	URL      string              `json:"url"`
	Response *api.SearchResponse `json:"response,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// run searches every URL and reports the outcome per URL. A failed search
// does not stop the others; the throttle still spaces the requests.
func (c *batchCmd) run(ctx context.Context, env *runEnv) error {
	urls, err := c.collectURLs()
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return errors.New("no urls given")
	}

	opts := searchOpts(c.Full, "")
	results := make([]batchResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(env.conf.Batch.Concurrency)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i].URL = u
			resp, err := env.provider.URLSearch(gctx, u, opts...)
			if err != nil {
				slog.Warn("url search failed", "url", u, "err", err)
				results[i].Error = err.Error()
				return nil
			}
			results[i].Response = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return writeJSON(env.out, results)
}

func (c *batchCmd) collectURLs() ([]string, error) {
	urls := append([]string{}, c.URLs...)
	if c.File == "" {
		return urls, nil
	}

	f, err := os.Open(c.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open url file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url file: %w", err)
	}
	return urls, nil
}

func searchOpts(full *string, encoding string) []copyscape.SearchOption {
	var opts []copyscape.SearchOption
	if full != nil {
		opts = append(opts, copyscape.WithFullComparison(*full))
	}
	if encoding != "" {
		opts = append(opts, copyscape.WithEncoding(encoding))
	}
	return opts
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeHTML(w io.Writer, doc *goquery.Document) error {
	html, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	_, err = fmt.Fprintln(w, html)
	return err
}
