package scene

import "errors"

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrUnknownModel   = errors.New("unknown model")
	ErrDuplicateModel = errors.New("duplicate model id in catalog")
	ErrInvalidModel   = errors.New("invalid catalog model")
)
