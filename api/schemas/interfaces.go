package schemas

import (
	"context"
)

// -- Browser Interfaces --

// Observer is the read-only inspection surface of a page. Implementations
// must return an error wrapping the session's not-found sentinel when a
// single-element query matches nothing.
type Observer interface {
	// Query snapshots the first element matching selector.
	Query(ctx context.Context, selector string) (Element, error)
	// QueryAll snapshots every match. No match is an empty slice, not an error.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// Evaluate runs a JavaScript extractor of the form `el => ...` against the
	// first match and decodes its result into out.
	Evaluate(ctx context.Context, selector, extractor string, out interface{}) error
	// Visible reports whether the first match is not hidden through its inline style.
	Visible(ctx context.Context, selector string) (bool, error)
	// Layout measures offsetWidth for each selector along with the window size.
	Layout(ctx context.Context, selectors ...string) (Layout, error)
}

// Interactor mutates page state. The application reacts asynchronously, so
// callers follow each call with a wait or settle delay before observing.
type Interactor interface {
	Navigate(ctx context.Context, url string) error
	// Select sets a control's value and fires its input and change events.
	Select(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	SetViewport(ctx context.Context, width, height int) error
}

// ScreenshotTaker produces PNG encoded images of the current page.
type ScreenshotTaker interface {
	FullScreenshot(ctx context.Context) ([]byte, error)
	ViewportScreenshot(ctx context.Context) ([]byte, error)
	ElementScreenshot(ctx context.Context, selector string) ([]byte, error)
}

// SessionContext is a single live browser tab exclusively owned by one run.
//
//go:generate mockery --name SessionContext --output ../../internal/mocks --outpkg mocks
type SessionContext interface {
	ID() string
	Observer
	Interactor
	ScreenshotTaker
	Close(ctx context.Context) error
}
