package traverse

import "errors"

// ErrNoResolver is returned when an unresolved reference is met and the
// engine has no resolver.
var ErrNoResolver = errors.New("no reference resolver configured")
