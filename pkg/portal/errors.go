package portal

import "errors"

// ErrViewNotFound is returned for an unknown or expired view, or a view
// mounted by another browser session
var ErrViewNotFound = errors.New("view not found")
