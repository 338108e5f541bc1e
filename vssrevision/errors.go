package vssrevision

import "errors"

// ErrItemNotFound is returned when a revision's forward effect references an
// entry that ProjectIndex does not hold (e.g. Destroy/MoveTo/Share on a name
// never added) — a corrupt or truncated history.
var ErrItemNotFound = errors.New("vssrevision: item not found in project index")
