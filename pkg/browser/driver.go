package browser

import (
	"context"

	"xtractor/pkg/models"
)

// Driver is the browser automation capability the control loop runs
// against. Every operation blocks the single control goroutine and
// honors context cancellation; the scroll/convergence state machine and
// the orchestrator depend only on this interface, so tests drive them
// with a fake and the rod implementation stays at the edge.
type Driver interface {
	// Navigate loads the URL and waits for the page load event
	Navigate(ctx context.Context, url string) error
	// CurrentURL returns the page's current location
	CurrentURL(ctx context.Context) (string, error)
	// PageHTML returns the full rendered document markup
	PageHTML(ctx context.Context) (string, error)
	// ElementsHTML returns the outer markup of every element matching
	// the selector, in document order
	ElementsHTML(ctx context.Context, selector string) ([]string, error)
	// DocumentHeight reads the rendered document height
	DocumentHeight(ctx context.Context) (int, error)

	// ScrollBy scrolls the window vertically by the given pixels
	ScrollBy(ctx context.Context, pixels int) error
	// ScrollByViewportRatio scrolls by a fraction of the viewport height
	ScrollByViewportRatio(ctx context.Context, ratio float64) error
	// SmoothScrollBy performs an eased scroll over roughly durationMs
	SmoothScrollBy(ctx context.Context, pixels, durationMs int) error
	// WheelScroll dispatches a mouse wheel gesture
	WheelScroll(ctx context.Context, deltaY int) error
	// ScrollToTop jumps to the top of the document
	ScrollToTop(ctx context.Context) error
	// ScrollToBottom jumps to the bottom of the document
	ScrollToBottom(ctx context.Context) error

	// MouseMove moves the pointer to the given coordinates
	MouseMove(ctx context.Context, x, y float64) error
	// ElementExists reports whether the selector matches anything
	ElementExists(ctx context.Context, selector string) (bool, error)
	// ClickElement clicks the first element matching the selector
	ClickElement(ctx context.Context, selector string) error
	// InsertText types text into the focused element
	InsertText(ctx context.Context, text string) error
	// PressEnter sends the Enter key
	PressEnter(ctx context.Context) error

	// Cookies reads all browser cookies
	Cookies(ctx context.Context) ([]models.Cookie, error)
	// SetCookies installs cookies into the browser
	SetCookies(ctx context.Context, cookies []models.Cookie) error
	// StorageState snapshots the page's local storage
	StorageState(ctx context.Context) (models.StorageState, error)
	// RestoreStorageState replays a local storage snapshot
	RestoreStorageState(ctx context.Context, state models.StorageState) error

	// Close tears down the page, browser, and underlying process
	Close() error
}
