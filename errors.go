package facet

import "errors"

// ErrUnknownModel is returned when a catalog has no definition of the requested name.
var ErrUnknownModel = errors.New("unknown model")
