package errors

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalid            = errors.New("invalid")
	ErrTooMany            = errors.New("too many requests")
	ErrUnsupportedKind    = errors.New("unsupported file type")
	ErrExtractionFailed   = errors.New("extraction failed")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func IsUnsupportedKind(err error) bool {
	return errors.Is(err, ErrUnsupportedKind)
}

func IsExtractionFailed(err error) bool {
	return errors.Is(err, ErrExtractionFailed)
}

func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
