package snapshot

import (
	"errors"
	"fmt"
	"hash/crc32"
)

// ChecksumMismatchError is returned when a payload fails verification.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("snapshot: checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// IsChecksumMismatch reports whether err wraps a ChecksumMismatchError.
func IsChecksumMismatch(err error) bool {
	var ce *ChecksumMismatchError
	return errors.As(err, &ce)
}

func verifyChecksum(payload []byte, expected uint32) error {
	if actual := crc32.ChecksumIEEE(payload); actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
