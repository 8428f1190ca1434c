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

package copyscape

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/alan-mat/copyscape/internal/api"
	"github.com/alan-mat/copyscape/internal/registry"
)

const (
	RootBalance = "remaining"
	RootSearch  = "response"
)

type decodeFunc func(data []byte) (any, error)

// decoders maps the root element of a response document to its decoder.
var decoders = registry.New[string, decodeFunc]()

func init() {
	decoders.RegisterMany(
		registry.Entry[string, decodeFunc]{Key: RootBalance, Value: decodeBalance},
		registry.Entry[string, decodeFunc]{Key: RootSearch, Value: decodeSearch},
	)
}

// element is a generic XML element. Documents are decoded into a tree of
// these and the decoders pick fields out of it by name.
type element struct {
	XMLName  xml.Name
	Text     string    `xml:",chardata"`
	Children []element `xml:",any"`
}

// find returns the first descendant of e named name, in document order.
func (e *element) find(name string) *element {
	for i := range e.Children {
		c := &e.Children[i]
		if c.XMLName.Local == name {
			return c
		}
		if d := c.find(name); d != nil {
			return d
		}
	}
	return nil
}

// text returns the character data of e and all of its descendants.
func (e *element) text() string {
	if len(e.Children) == 0 {
		return e.Text
	}
	var sb strings.Builder
	sb.WriteString(e.Text)
	for i := range e.Children {
		sb.WriteString(e.Children[i].text())
	}
	return sb.String()
}

// field names a descendant element whose text is copied into dst.
type field struct {
	name string
	dst  *string
}

// collect fills every field from the first matching descendant of e.
func (e *element) collect(root string, fields ...field) error {
	for _, f := range fields {
		d := e.find(f.name)
		if d == nil {
			return missingElement(root, f.name)
		}
		*f.dst = d.text()
	}
	return nil
}

func newXMLDecoder(data []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel
	return d
}

// rootElement checks that data is a well-formed document with a single
// root element and returns the root's name.
func rootElement(data []byte) (string, error) {
	d := newXMLDecoder(data)

	var root string
	depth := 0
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if root != "" {
					return "", fmt.Errorf("second root element '%s'", t.Name.Local)
				}
				root = t.Name.Local
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}

	if root == "" {
		return "", errors.New("document has no root element")
	}
	return root, nil
}

// decodeXML picks the decoder registered for the document's root element.
func decodeXML(data []byte) (string, any, error) {
	root, err := rootElement(data)
	if err != nil {
		return "", nil, ErrMalformedResponse{Reason: "invalid xml", Err: err}
	}

	decode, ok := decoders.Get(root)
	if !ok {
		return root, nil, ErrMalformedResponse{Root: root, Reason: "unrecognized root element"}
	}

	v, err := decode(data)
	return root, v, err
}

// decodeAs decodes data and requires the result to be a *T.
func decodeAs[T any](data []byte) (*T, error) {
	root, v, err := decodeXML(data)
	if err != nil {
		return nil, err
	}

	t, ok := v.(*T)
	if !ok {
		return nil, ErrMalformedResponse{
			Root:   root,
			Reason: fmt.Sprintf("root element does not hold a %T", t),
		}
	}
	return t, nil
}

func parseTree(root string, data []byte) (*element, error) {
	var e element
	if err := newXMLDecoder(data).Decode(&e); err != nil {
		return nil, ErrMalformedResponse{Root: root, Reason: "invalid xml", Err: err}
	}
	return &e, nil
}

func decodeBalance(data []byte) (any, error) {
	e, err := parseTree(RootBalance, data)
	if err != nil {
		return nil, err
	}

	var total, today string
	if err := e.collect(RootBalance, field{"total", &total}, field{"today", &today}); err != nil {
		return nil, err
	}

	resp := &api.BalanceResponse{}
	if resp.Total, err = parseInt(RootBalance, "total", total); err != nil {
		return nil, err
	}
	if resp.Today, err = parseInt(RootBalance, "today", today); err != nil {
		return nil, err
	}
	return resp, nil
}

// decodeSearch maps the direct children of <response>. Results are keyed by
// index: a repeated index replaces the earlier result in its position.
func decodeSearch(data []byte) (any, error) {
	e, err := parseTree(RootSearch, data)
	if err != nil {
		return nil, err
	}

	resp := &api.SearchResponse{
		Results: make([]*api.SearchResult, 0),
	}
	positions := make(map[int]int)

	for i := range e.Children {
		c := &e.Children[i]
		switch c.XMLName.Local {
		case "error":
			return nil, ErrService{Message: strings.TrimSpace(c.text())}
		case "query":
			resp.Query = c.text()
		case "querywords":
			resp.QueryWords = c.text()
		case "count":
			if resp.Count, err = parseInt(RootSearch, "count", c.text()); err != nil {
				return nil, err
			}
		case "result":
			result, err := decodeResult(c)
			if err != nil {
				return nil, err
			}
			if pos, ok := positions[result.Index]; ok {
				resp.Results[pos] = result
				continue
			}
			positions[result.Index] = len(resp.Results)
			resp.Results = append(resp.Results, result)
		}
	}

	return resp, nil
}

func decodeResult(e *element) (*api.SearchResult, error) {
	var index, minWords string
	res := &api.SearchResult{}

	err := e.collect(RootSearch,
		field{"index", &index},
		field{"url", &res.URL},
		field{"title", &res.Title},
		field{"textsnippet", &res.TextSnippet},
		field{"htmlsnippet", &res.HTMLSnippet},
		field{"minwordsmatched", &minWords},
	)
	if err != nil {
		return nil, err
	}

	if res.Index, err = parseInt(RootSearch, "index", index); err != nil {
		return nil, err
	}
	if res.MinWordsMatched, err = parseInt(RootSearch, "minwordsmatched", minWords); err != nil {
		return nil, err
	}
	return res, nil
}

func parseInt(root, name, val string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, ErrMalformedResponse{
			Root:   root,
			Reason: fmt.Sprintf("element '%s' is not an integer", name),
			Err:    err,
		}
	}
	return n, nil
}

func missingElement(root, name string) error {
	return ErrMalformedResponse{
		Root:   root,
		Reason: fmt.Sprintf("missing element '%s'", name),
	}
}

func decodeHTML(data []byte) (*goquery.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrMalformedResponse{Reason: "invalid html", Err: errors.New("empty document")}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, ErrMalformedResponse{Reason: "invalid html", Err: err}
	}
	return doc, nil
}
