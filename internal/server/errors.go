package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrInvalidMessage       = errors.New("invalid message")
	ErrUnknownMessage       = errors.New("unknown message type")
	ErrUnknownCommand       = errors.New("unknown command")
	ErrInvalidConfig        = errors.New("invalid server configuration")
)
