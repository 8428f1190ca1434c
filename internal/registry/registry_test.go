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

package registry_test

import (
	"sync"
	"testing"

	"github.com/alan-mat/copyscape/internal/registry"
)

func TestRegistryRegisterManyAndGet(t *testing.T) {
	r := registry.New[string, int]()
	r.RegisterMany(
		registry.Entry[string, int]{Key: "remaining", Value: 1},
		registry.Entry[string, int]{Key: "response", Value: 2},
	)

	for key, expected := range map[string]int{"remaining": 1, "response": 2} {
		got, ok := r.Get(key)
		if !ok {
			t.Errorf("key '%s' not found in registry", key)
			continue
		}
		if got != expected {
			t.Errorf("key '%s', got %d, expected %d", key, got, expected)
		}
	}

	if _, ok := r.Get("foo"); ok {
		t.Error("got unregistered key")
	}
}

func TestRegistryRegisterManyOverwrite(t *testing.T) {
	r := registry.New[string, string]()
	r.RegisterMany(
		registry.Entry[string, string]{Key: "remaining", Value: "balance"},
		registry.Entry[string, string]{Key: "response", Value: "search"},
	)
	r.RegisterMany(registry.Entry[string, string]{Key: "response", Value: "search-v2"})

	val, ok := r.Get("response")
	if !ok {
		t.Fatal("key 'response' doesn't exist")
	}
	if val != "search-v2" {
		t.Errorf("got '%s', expected '%s'", val, "search-v2")
	}
	if _, ok := r.Get("remaining"); !ok {
		t.Error("untouched key 'remaining' was lost")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := registry.New[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RegisterMany(registry.Entry[int, int]{Key: i, Value: i * i})
			r.Get(i)
		}()
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		if v, ok := r.Get(i); !ok || v != i*i {
			t.Errorf("key %d, got %d (found %v), expected %d", i, v, ok, i*i)
		}
	}
}
