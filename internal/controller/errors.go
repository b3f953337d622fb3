package controller

import "errors"

var (
	ErrNoSelection = errors.New("no object selected")
	ErrQueueFull   = errors.New("command queue is full")
	ErrStopped     = errors.New("controller is not running")
)
