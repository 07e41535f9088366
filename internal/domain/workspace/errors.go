package workspace

import "errors"

// ErrNotFound marks lookups for projects, samples, attributions or analyses
// that do not exist. Handlers map it to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned when a workspace, project or data source is used
// after Close.
var ErrClosed = errors.New("already closed")

// ErrUnsupported marks unknown dataset types, sampling methods or color maps.
var ErrUnsupported = errors.New("not supported")
