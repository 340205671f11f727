package mqtt

import "errors"

// ErrNotConnected is returned when publishing through a closed client.
var ErrNotConnected = errors.New("mqtt client not connected")
