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

package api

// BalanceResponse holds the number of searches left on the account.
type BalanceResponse struct {
	Total int `json:"total"`
	Today int `json:"today"`
}

type SearchResult struct {
	Index           int    `json:"index"`
	URL             string `json:"url"`
	Title           string `json:"title"`
	TextSnippet     string `json:"textsnippet"`
	HTMLSnippet     string `json:"htmlsnippet"`
	MinWordsMatched int    `json:"minwordsmatched"`
}

// SearchResponse is the outcome of a URL or text search.
// Results are keyed by index and keep the order in which the service first
// returned each index; indices are not guaranteed to be contiguous.
type SearchResponse struct {
	Query      string          `json:"query,omitempty"`
	QueryWords string          `json:"querywords,omitempty"`
	Count      int             `json:"count"`
	Results    []*SearchResult `json:"results"`
}

// Result returns the result with the given index.
func (r *SearchResponse) Result(index int) (*SearchResult, bool) {
	for _, res := range r.Results {
		if res.Index == index {
			return res, true
		}
	}
	return nil, false
}
