//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseDNI tests that parsing never panics on arbitrary input
// and always returns either a valid DNI or an error.
func FuzzParseDNI(f *testing.F) {
	f.Add("")
	f.Add("72345678")
	f.Add("00000000")
	f.Add("123")
	f.Add("1234567a")
	f.Add("'; DROP TABLE users;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("72345678\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		d, err := ParseDNI(input)

		if Validate(input) != (err == nil) {
			t.Errorf("Validate and ParseDNI disagree on %q", input)
		}

		if err == nil {
			if d.String() != input {
				t.Errorf("ParseDNI changed value: %q -> %q", input, d.String())
			}
			if len(input) != DNILength {
				t.Errorf("accepted DNI of length %d", len(input))
			}
		}

		if !utf8.ValidString(input) && err == nil {
			t.Error("Non-UTF8 input was accepted")
		}
	})
}
