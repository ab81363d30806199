package domain

import (
    "errors"
    "fmt"
)

var (
    // ErrFormat indicates a malformed or truncated container header.
    ErrFormat = errors.New("invalid container format")
    // ErrMissingKey indicates that no key could be resolved for a video id.
    ErrMissingKey = errors.New("missing key")
    // ErrInvalidKey indicates key material too short for the cipher.
    ErrInvalidKey = errors.New("invalid key")
    // ErrCorruptData indicates ciphertext the cipher cannot process.
    ErrCorruptData = errors.New("corrupt data")
    // ErrIO indicates an open, read or write failure.
    ErrIO = errors.New("i/o failure")
    // ErrConfig indicates an invalid or uncreatable path.
    ErrConfig = errors.New("invalid configuration")
)

// FormatError carries the field and position at which header parsing failed.
type FormatError struct {
    Field     string
    Offset    int64
    Need      int64
    Remaining int64
    Reason    string
}

func (e *FormatError) Error() string {
    if e.Reason != "" {
        return fmt.Sprintf("%s at offset %d: %s", e.Field, e.Offset, e.Reason)
    }
    return fmt.Sprintf("%s at offset %d: need %d bytes, only %d remaining", e.Field, e.Offset, e.Need, e.Remaining)
}

func (e *FormatError) Is(target error) bool {
    return target == ErrFormat
}
