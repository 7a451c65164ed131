package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor name length
)

// tensorRange is a tensor's byte range in the data section.
type tensorRange struct {
	Name       string
	Begin, End int64
}

// validateOffsets checks for overlapping tensor ranges and out-of-bounds access.
func validateOffsets(ranges []tensorRange, dataSize int64) error {
	if len(ranges) > MaxTensorCount {
		return &ValidationError{
			Err:     ErrTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(ranges), MaxTensorCount),
		}
	}

	sorted := make([]tensorRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Begin < sorted[j].Begin
	})

	for i, t := range sorted {
		if t.Begin < 0 || t.End < t.Begin || t.End > dataSize {
			return &ValidationError{
				Err:     ErrOutOfBounds,
				Tensor:  t.Name,
				Details: fmt.Sprintf("range [%d, %d) outside data section of %d bytes", t.Begin, t.End, dataSize),
			}
		}

		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.End > next.Begin {
				return &ValidationError{
					Err:     ErrOffsetOverlap,
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap", t.Begin, t.End, next.Begin, next.End),
				}
			}
		}
	}

	return nil
}

// ValidateTensorName checks tensor names for path traversal and malformed
// patterns.
func ValidateTensorName(name string) error {
	invalid := func(details string) error {
		return &ValidationError{Err: ErrInvalidTensorName, Tensor: name, Details: details}
	}

	switch {
	case name == "":
		return invalid("empty name")
	case len(name) > MaxTensorNameLen:
		return invalid(fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen))
	case name == "__metadata__":
		return invalid("reserved name")
	case strings.Contains(name, ".."):
		return invalid("contains '..' (path traversal attempt)")
	case strings.ContainsAny(name, "/\\"):
		return invalid("contains path separator (/ or \\)")
	case strings.Contains(name, "\x00"):
		return invalid("contains null byte")
	}
	return nil
}
