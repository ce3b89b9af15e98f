package gmb

import (
	"context"
	"errors"
	"time"
)

// ErrElementNotFound is returned when a selector matches nothing, or nothing
// within a bounded wait.
var ErrElementNotFound = errors.New("element not found")

// Selector addresses an element by CSS query or by XPath.
type Selector struct {
	Query string
	XPath bool
}

func CSS(q string) Selector   { return Selector{Query: q} }
func XPath(q string) Selector { return Selector{Query: q, XPath: true} }

func (s Selector) String() string {
	return s.Query
}

// Browser is the page-level capability the navigator drives. Every element
// lookup acts on the first match of its selector.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Exists(ctx context.Context, sel Selector) (bool, error)
	// WaitFor polls until sel is present or timeout elapses (ErrElementNotFound).
	WaitFor(ctx context.Context, sel Selector, timeout time.Duration) error
	// Click clicks through script, or returns ErrElementNotFound.
	Click(ctx context.Context, sel Selector) error
	Clear(ctx context.Context, sel Selector) error
	// Type sends keystrokes to the element; "\n" submits.
	Type(ctx context.Context, sel Selector, keys string) error
	PageHeight(ctx context.Context) (int64, error)
	ScrollToBottom(ctx context.Context) error
	// OuterHTML returns the outer HTML of every match of sel.
	OuterHTML(ctx context.Context, sel Selector) ([]string, error)
	Close() error
}
