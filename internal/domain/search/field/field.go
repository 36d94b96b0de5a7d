package field

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
)

// Field is a column offered for autocomplete.
type Field string

// Autocomplete fields.
const (
	Provider  Field = "provider"
	Specialty Field = "specialty"
	Facility  Field = "facility"
)

// Default is used for unknown field names in permissive mode.
const Default = Specialty

var aliases = map[string]Field{
	"provider":          Provider,
	"provider_name":     Provider,
	"specialty":         Specialty,
	"specialty_service": Specialty,
	"facility":          Facility,
}

// Parse resolves a field name or alias, case-insensitively.
// An unknown name resolves to Default unless strict is set, in which case it is an error.
func Parse(name string, strict bool) (Field, error) {
	if f, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	if strict {
		return "", fmt.Errorf("invalid autocomplete field %q (expected provider, specialty or facility)", name)
	}
	return Default, nil
}

// IsValid reports whether f is a canonical field.
func (f Field) IsValid() bool {
	return f == Provider || f == Specialty || f == Facility
}

// Value returns the entry's value for f. A missing provider yields "".
func (f Field) Value(e knowledge.Entry) string {
	switch f {
	case Provider:
		return e.ProviderName()
	case Facility:
		return e.Facility()
	default:
		return e.Specialty()
	}
}
