package olc

import (
	"fmt"

	pluscode "github.com/google/open-location-code/go"
)

// Check reports whether code is a valid full or short code.
func Check(code string) error {
	if err := pluscode.Check(code); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	return nil
}

// CheckFull reports whether code is a valid full code.
func CheckFull(code string) error {
	if IsShort(code) {
		return fmt.Errorf("%w: %s", ErrShortCode, code)
	}
	if err := pluscode.CheckFull(code); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	return nil
}

// IsValid reports whether code is a valid full or short code.
func IsValid(code string) bool { return Check(code) == nil }

// IsFull reports whether code is a valid full code.
func IsFull(code string) bool { return CheckFull(code) == nil }

// IsShort reports whether code is a valid code with digits removed from
// the front. It is false for invalid codes.
func IsShort(code string) bool { return pluscode.CheckShort(code) == nil }
