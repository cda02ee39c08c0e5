package binder

import "errors"

var (
	ErrBinderNotApplicable  = errors.New("binder not applicable")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrBodyTooLarge         = errors.New("request body too large")
	ErrInvalidQuery         = errors.New("invalid query parameter")
	ErrInvalidPath          = errors.New("invalid path parameter")
)
