// Package models holds the canonical identity types shared by the registry
// client, the normalizer, the lookup service and the session history.
package models

import "time"

// RawPayload is the unmodified JSON object returned by the identity registry.
// No schema is assumed; the normalizer is the only reader of its keys.
type RawPayload map[string]any

// PersonRecord is the canonical shape of a successful registry lookup.
//
// Invariants:
//   - ID is the queried DNI
//   - FullName is always derived from the three name parts (possibly "")
//   - Raw is the payload exactly as received
//
// Records are built once by the normalizer and must not be mutated afterwards.
type PersonRecord struct {
	ID              string
	FirstNames      string
	PaternalSurname string
	MaternalSurname string
	FullName        string
	BirthDate       *string
	Sex             *string
	MaritalStatus   *string
	Address         *string
	District        *string
	Province        *string
	Department      *string
	Raw             RawPayload
}

// Clone returns a deep copy of r. The optional fields and Raw, including any
// nested objects and arrays, share no memory with r.
func (r PersonRecord) Clone() PersonRecord {
	out := r
	out.BirthDate = cloneString(r.BirthDate)
	out.Sex = cloneString(r.Sex)
	out.MaritalStatus = cloneString(r.MaritalStatus)
	out.Address = cloneString(r.Address)
	out.District = cloneString(r.District)
	out.Province = cloneString(r.Province)
	out.Department = cloneString(r.Department)
	out.Raw = r.Raw.Clone()
	return out
}

// Clone returns a deep copy of p. A nil payload stays nil.
func (p RawPayload) Clone() RawPayload {
	if p == nil {
		return nil
	}
	return RawPayload(cloneValue(map[string]any(p)).(map[string]any))
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

// cloneValue copies the container types produced by encoding/json. Scalars
// (string, json.Number, float64, bool, nil) are immutable and returned as-is.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// HistoryEntry is one successful lookup remembered for the session.
type HistoryEntry struct {
	Record      PersonRecord
	ConsultedAt time.Time
}
