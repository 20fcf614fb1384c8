package heapsnapshot

import (
	apperrors "github.com/heapsnap-analysis/pkg/errors"
)

// errIO wraps a snapshot-read failure (the source can't be opened or read).
func errIO(message string, err error) error {
	return apperrors.Wrap(apperrors.CodeIOError, message, err)
}

// errParse wraps a failure in the JSON envelope itself: malformed JSON, a
// required meta path missing, or a node/edge array length mismatch.
func errParse(message string, err error) error {
	return apperrors.Wrap(apperrors.CodeParseError, message, err)
}

// errDecode wraps an unknown type tag encountered while interpreting meta.
func errDecode(message string, err error) error {
	return apperrors.Wrap(apperrors.CodeDecodeError, message, err)
}
