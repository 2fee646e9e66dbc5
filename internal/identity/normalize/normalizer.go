// Package normalize maps the loosely specified registry payload onto the
// canonical PersonRecord.
//
// The registry is known to spell the same attribute two ways (for example
// "apellidoPaterno" and "apellido_paterno"). Every logical field therefore has
// an ordered list of candidate keys: the camel-style key is tried first, then the
// snake-style key, and the first usable value wins.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"padron/internal/identity/models"
	"padron/pkg/domain"
)

// Candidate keys per logical field, in priority order.
var (
	FirstNamesKeys      = []string{"nombres"}
	PaternalSurnameKeys = []string{"apellidoPaterno", "apellido_paterno"}
	MaternalSurnameKeys = []string{"apellidoMaterno", "apellido_materno"}
	BirthDateKeys       = []string{"fechaNacimiento", "fecha_nacimiento"}
	SexKeys             = []string{"sexo"}
	MaritalStatusKeys   = []string{"estadoCivil", "estado_civil"}
	AddressKeys         = []string{"direccion", "direccion_completa"}
	DistrictKeys        = []string{"distrito"}
	ProvinceKeys        = []string{"provincia"}
	DepartmentKeys      = []string{"departamento"}
)

// Normalize builds a PersonRecord from a raw registry payload. It never fails:
// missing name parts become "", missing optional attributes become nil.
// The payload is retained on the record as-is.
func Normalize(id domain.DNI, raw models.RawPayload) models.PersonRecord {
	first := text(raw, FirstNamesKeys)
	paternal := text(raw, PaternalSurnameKeys)
	maternal := text(raw, MaternalSurnameKeys)

	return models.PersonRecord{
		ID:              id.String(),
		FirstNames:      first,
		PaternalSurname: paternal,
		MaternalSurname: maternal,
		FullName:        FullName(first, paternal, maternal),
		BirthDate:       optional(raw, BirthDateKeys),
		Sex:             optional(raw, SexKeys),
		MaritalStatus:   optional(raw, MaritalStatusKeys),
		Address:         optional(raw, AddressKeys),
		District:        optional(raw, DistrictKeys),
		Province:        optional(raw, ProvinceKeys),
		Department:      optional(raw, DepartmentKeys),
		Raw:             raw,
	}
}

// FullName joins the name parts with single spaces. Empty parts are skipped so
// the result never carries leading, trailing or doubled separators.
func FullName(firstNames, paternalSurname, maternalSurname string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{firstNames, paternalSurname, maternalSurname} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func text(raw models.RawPayload, keys []string) string {
	if v, ok := lookup(raw, keys); ok {
		return v
	}
	return ""
}

func optional(raw models.RawPayload, keys []string) *string {
	if v, ok := lookup(raw, keys); ok {
		return &v
	}
	return nil
}

// lookup returns the first candidate whose value is a non-blank scalar.
func lookup(raw models.RawPayload, keys []string) (string, bool) {
	for _, key := range keys {
		v, ok := scalar(raw[key])
		if ok {
			return v, true
		}
	}
	return "", false
}

func scalar(v any) (string, bool) {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case json.Number:
		s = val.String()
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		s = strconv.Itoa(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	case bool:
		s = strconv.FormatBool(val)
	default:
		// nil, objects and arrays carry no usable value for a flat field.
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
