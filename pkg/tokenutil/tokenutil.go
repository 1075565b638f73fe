// Package tokenutil counts and truncates text in cl100k_base tokens. The
// encoding loads in the background; until it is ready, or when it cannot be
// loaded, a rune-based estimate is used. Callers never wait on the load.
package tokenutil

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkoukk/tiktoken-go"
)

type loader struct {
	load  func() (*tiktoken.Tiktoken, error)
	once  sync.Once
	ready chan struct{}
	enc   atomic.Pointer[tiktoken.Tiktoken]
}

func newLoader(load func() (*tiktoken.Tiktoken, error)) *loader {
	return &loader{load: load, ready: make(chan struct{})}
}

func (l *loader) start() {
	l.once.Do(func() {
		go func() {
			defer close(l.ready)
			if e, err := l.load(); err == nil {
				l.enc.Store(e)
			}
		}()
	})
}

// get returns the encoding if it has loaded, without blocking.
func (l *loader) get() *tiktoken.Tiktoken {
	l.start()
	return l.enc.Load()
}

// wait blocks until the load finishes or ctx ends.
func (l *loader) wait(ctx context.Context) bool {
	l.start()
	select {
	case <-l.ready:
		return l.enc.Load() != nil
	case <-ctx.Done():
		return false
	}
}

var cl100k = newLoader(func() (*tiktoken.Tiktoken, error) {
	return tiktoken.GetEncoding("cl100k_base")
})

func init() { cl100k.start() }

// Warm waits for the encoding up to ctx's deadline and reports whether it
// is available. Servers call it before accepting traffic.
func Warm(ctx context.Context) bool { return cl100k.wait(ctx) }

// Count returns the token count of text.
func Count(text string) int { return countWith(cl100k.get(), text) }

// Truncate cuts text to at most maxTokens tokens. maxTokens <= 0 yields "".
func Truncate(text string, maxTokens int) string { return truncateWith(cl100k.get(), text, maxTokens) }

func countWith(e *tiktoken.Tiktoken, text string) int {
	if e != nil {
		return len(e.Encode(text, nil, nil))
	}
	return estimate(text)
}

func truncateWith(e *tiktoken.Tiktoken, text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if e != nil {
		tokens := e.Encode(text, nil, nil)
		if len(tokens) <= maxTokens {
			return text
		}
		return e.Decode(tokens[:maxTokens])
	}
	runes := []rune(text)
	limit := maxTokens * 4
	if limit >= len(runes) {
		return text
	}
	return string(runes[:limit])
}

// estimate is max(runes/4, words), never zero for non-blank text.
func estimate(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	n := len([]rune(trimmed)) / 4
	if w := len(strings.Fields(trimmed)); w > n {
		n = w
	}
	if n == 0 {
		n = 1
	}
	return n
}
