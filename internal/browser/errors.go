// internal/browser/errors.go
package browser

import "errors"

var (
	// ErrLaunch means the browser process could not be started or did not answer.
	ErrLaunch = errors.New("browser launch failed")
	// ErrNavigation means the target could not be loaded.
	ErrNavigation = errors.New("navigation failed")
	// ErrNotFound means a selector matched no element. It is never a timeout.
	ErrNotFound = errors.New("element not found")
	// ErrSessionBusy means a session is already live for this manager.
	ErrSessionBusy = errors.New("a browser session is already active")
	// ErrSessionClosed is returned by operations on a released session.
	ErrSessionClosed = errors.New("browser session is closed")
)
