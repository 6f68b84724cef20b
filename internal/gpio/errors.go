package gpio

import "errors"

// ErrUnclaimed is returned for a role whose line was not claimed at boot.
var ErrUnclaimed = errors.New("line not claimed")
