package errcode

const (
	ErrUnauthorized = 10000001 + iota
	ErrInvalid
	ErrTooMany
	ErrInternal
	ErrInvalidFile
	ErrUnsupportedKind
	ErrExtractionFailed
	ErrFileTooLarge
	ErrStorageUnavailable
	ErrAIUnavailable
)
