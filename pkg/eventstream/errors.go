package eventstream

import "errors"

// ErrNilWriteEvent indicates a nil write event payload was provided to a publisher.
var ErrNilWriteEvent = errors.New("nil write event")
