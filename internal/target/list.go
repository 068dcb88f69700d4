package target

import (
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/studiowebux/loadcli/internal/types"
)

// List is an ordered set of targets consumed round-robin. The cursor is a
// shared atomic counter so concurrent callers never skip or duplicate a slot.
type List struct {
	targets []types.Target
	cursor  uint64
}

// NewList validates the targets and returns a List. The list must be
// non-empty and every URL must parse.
func NewList(targets []types.Target) (*List, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets provided")
	}
	for i, t := range targets {
		if _, err := url.ParseRequestURI(t.URL); err != nil {
			return nil, fmt.Errorf("invalid URL %q: %w", t.URL, err)
		}
		if t.Method == "" {
			targets[i].Method = types.DefaultMethod
		}
	}
	return &List{targets: targets}, nil
}

// Next returns the next target in round-robin order
func (l *List) Next() types.Target {
	n := atomic.AddUint64(&l.cursor, 1) - 1
	return l.targets[n%uint64(len(l.targets))]
}

// Len returns the number of targets
func (l *List) Len() int {
	return len(l.targets)
}

// Targets returns the underlying targets in order
func (l *List) Targets() []types.Target {
	return l.targets
}
