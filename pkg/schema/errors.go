package schema

import "errors"

var (
	ErrInvalidIndex = errors.New("negative dictionary index")
	ErrUnknownIndex = errors.New("dictionary index not known to server")
	ErrInvalidKind  = errors.New("invalid dictionary kind")
	ErrStoreClosed  = errors.New("snapshot store closed")
)
