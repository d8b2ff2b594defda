package narrator

import "errors"

// ErrNoIndexPath is returned by SaveIndex when the library was opened
// without an index path.
var ErrNoIndexPath = errors.New("no index path configured")
