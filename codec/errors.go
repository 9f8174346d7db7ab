package codec

import "fmt"

// ErrInvalidText is returned when a text field's bytes are not valid
// UTF-8.
type ErrInvalidText struct {
	Len int
}

func (e *ErrInvalidText) Error() string {
	return fmt.Sprintf("codec: invalid UTF-8 text of length %d", e.Len)
}

// ErrUnknownVariant is returned by envelope decoding when the ordinal
// in the wire data does not name any data type known to the coda in
// hand. The caller can still skip exactly the bytes this envelope
// occupied (see DecodeEnvelope's consumed return value).
type ErrUnknownVariant struct {
	Ordinal int
}

func (e *ErrUnknownVariant) Error() string {
	return fmt.Sprintf("codec: unknown variant ordinal %d", e.Ordinal)
}

// ErrDepthExceeded is returned when decoding recurses past MaxDepth,
// guarding against cyclic or pathologically deep schemas driving the
// decoder into a stack overflow.
type ErrDepthExceeded struct {
	Limit int
}

func (e *ErrDepthExceeded) Error() string {
	return fmt.Sprintf("codec: decode depth exceeded limit of %d", e.Limit)
}

// ErrLengthMismatch is returned when a length-prefixed region's
// declared byte count does not fit within its enclosing buffer.
type ErrLengthMismatch struct {
	Declared, Available int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("codec: declared length %d exceeds %d available bytes", e.Declared, e.Available)
}

// ErrValueOutOfRange is returned when encoding an integer value that
// does not fit the declared bit width of its TypeRef.
type ErrValueOutOfRange struct {
	Field string
	Width int
}

func (e *ErrValueOutOfRange) Error() string {
	return fmt.Sprintf("codec: value for field %q does not fit its %d-bit width", e.Field, e.Width)
}
