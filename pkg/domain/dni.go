package domain

import "errors"

// DNILength is the fixed number of digits in a national identity number.
const DNILength = 8

// ErrInvalidDNI indicates the value is not an 8-digit national identity number.
var ErrInvalidDNI = errors.New("invalid DNI: must be exactly 8 numeric digits")

// DNI is a validated national identity number used as the registry lookup key.
//
// Invariants:
//   - Exactly 8 characters
//   - ASCII digits only; leading zeros are significant
type DNI struct {
	value string
}

// Validate reports whether input is exactly 8 ASCII decimal digits.
// Any string is accepted as input, including malformed UTF-8.
func Validate(input string) bool {
	if len(input) != DNILength {
		return false
	}
	for i := 0; i < len(input); i++ {
		if input[i] < '0' || input[i] > '9' {
			return false
		}
	}
	return true
}

// ParseDNI creates a validated DNI or returns ErrInvalidDNI.
func ParseDNI(value string) (DNI, error) {
	if !Validate(value) {
		return DNI{}, ErrInvalidDNI
	}
	return DNI{value: value}, nil
}

// MustDNI creates a DNI, panicking if invalid.
// Use only in tests or when the value is known to be valid.
func MustDNI(value string) DNI {
	d, err := ParseDNI(value)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the digits of the DNI.
func (d DNI) String() string {
	return d.value
}

// IsZero returns true if this is the zero value (uninitialized).
func (d DNI) IsZero() bool {
	return d.value == ""
}

// Masked returns the DNI with its last four digits hidden, for logs and audit trails.
func (d DNI) Masked() string {
	return MaskDNI(d.value)
}

// MaskDNI hides everything past the first four characters of a raw identifier.
// Shorter inputs are fully masked.
func MaskDNI(raw string) string {
	if len(raw) <= 4 {
		return "****"
	}
	return raw[:4] + "****"
}
