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

import "fmt"

// ErrTransport is returned when the request could not be sent or the
// service answered with a non-2xx status. The body is never parsed.
type ErrTransport struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e ErrTransport) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("http client reported an error: %v", e.Err)
	}
	return fmt.Sprintf("(HTTP Error %d) %s", e.StatusCode, e.Body)
}

func (e ErrTransport) Unwrap() error {
	return e.Err
}

// ErrMalformedResponse is returned when the response body cannot be mapped:
// broken XML or HTML, an unknown root element, a missing or non-numeric
// child element.
type ErrMalformedResponse struct {
	Root   string
	Reason string
	Err    error
}

func (e ErrMalformedResponse) Error() string {
	msg := "copyscape returned a malformed response"
	if e.Root != "" {
		msg += fmt.Sprintf(" (root '%s')", e.Root)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e ErrMalformedResponse) Unwrap() error {
	return e.Err
}

type ErrUnsupportedFormat struct {
	Format string
}

func (e ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported response format '%s'", e.Format)
}

// ErrService carries the message of an <error> element, which the service
// uses to report rejected requests (bad credentials, no credit left).
type ErrService struct {
	Message string
}

func (e ErrService) Error() string {
	return fmt.Sprintf("copyscape service error: %s", e.Message)
}
