package scan

import "errors"

// ErrNilDependency occurs when a [Scanner] is created without one of its
// required dependencies.
var ErrNilDependency = errors.New("nil dependency")
