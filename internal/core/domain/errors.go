package domain

import "errors"

// ErrForbidden is returned when a signed-in role may not see a page and no
// other page can take it.
var ErrForbidden = errors.New("access forbidden")
