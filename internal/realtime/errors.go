package realtime

import "errors"

// ErrSubscriberClosed names the condition of a closed subscriber. No function
// in this package returns it: Publish skips closed subscribers silently.
var ErrSubscriberClosed = errors.New("realtime: subscriber closed")
