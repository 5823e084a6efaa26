package notify

import "errors"

// ErrMissingMessage means the support form arrived without a message body.
var ErrMissingMessage = errors.New("notify: message is required")
