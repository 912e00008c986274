package armor

import "errors"

var (
	ErrInsufficientCatalog = errors.New("catalog is too small to build a mapping table")
	ErrDuplicateWord       = errors.New("catalog contains a duplicate word")
	ErrInvalidWord         = errors.New("catalog contains an invalid word")
	ErrLimitTooSmall       = errors.New("character limit is too small")
	ErrTooManyMessages     = errors.New("payload needs more messages than a sequence number can address")
	ErrMalformedMessage    = errors.New("malformed message")
	ErrDuplicateSequence   = errors.New("duplicate message sequence number")
	ErrInvalidTable        = errors.New("invalid mapping table")
)
