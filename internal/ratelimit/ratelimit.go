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

// Package ratelimit spaces outbound requests to the Copyscape API.
//
// The service accepts at most one request per second per account. Every
// provider in a process shares the limiter returned by Process unless a
// different Limiter is injected; RedisLimiter extends the same guarantee
// across processes.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Interval is the minimum gap between two requests.
const Interval = time.Second

// Limiter blocks the caller until it may send the next request.
type Limiter interface {
	Wait(ctx context.Context) error
}

var process = New(Interval)

// Process returns the limiter shared by the whole process. It is safe for
// concurrent use.
func Process() Limiter {
	return process
}

// New returns a limiter that grants one slot per interval with no burst.
// The first slot is granted immediately.
func New(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 1)
}

type noop struct{}

func (noop) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Noop never blocks.
var Noop Limiter = noop{}
