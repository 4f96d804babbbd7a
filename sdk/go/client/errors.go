package client

import "errors"

// Client-specific errors
var (
	ErrClientClosed   = errors.New("client is closed")
	ErrInvalidMessage = errors.New("invalid message")
	ErrInvalidConfig  = errors.New("invalid client configuration")
)
