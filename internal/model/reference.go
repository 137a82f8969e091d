package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// CorruptedPlaceholder is the text an upstream formatter produces when it
// stringifies an account object that has no string form.
const CorruptedPlaceholder = "[object Object]"

// RefKind tags the arrival shape of an allocation's account reference.
type RefKind int

const (
	RefNone RefKind = iota
	RefID
	RefEmbedded
	RefCorrupted
)

func (k RefKind) String() string {
	switch k {
	case RefNone:
		return "none"
	case RefID:
		return "id"
	case RefEmbedded:
		return "embedded"
	case RefCorrupted:
		return "corrupted"
	}
	return fmt.Sprintf("refkind(%d)", int(k))
}

// EmbeddedAccount is an account object denormalized into an allocation.
// ExternalRef is the external-reference marker and wins over InternalID.
type EmbeddedAccount struct {
	ExternalRef string `json:"$ref,omitempty"`
	InternalID  string `json:"_id,omitempty"`
	ID          string `json:"id,omitempty"`
	Code        string `json:"code,omitempty"`
	Name        string `json:"name,omitempty"`
	FullCode    string `json:"fullCode,omitempty"`
}

// Reference is the account-code reference carried by an allocation in any of
// its arrival shapes. Raw holds the original text of a corrupted reference.
type Reference struct {
	Kind     RefKind
	ID       string
	Embedded *EmbeddedAccount
	Raw      string
}

// IDRef returns a plain id reference, or a none reference for an empty id.
func IDRef(id string) Reference {
	id = strings.TrimSpace(id)
	if id == "" {
		return Reference{}
	}
	if id == CorruptedPlaceholder {
		return Reference{Kind: RefCorrupted, Raw: id}
	}
	return Reference{Kind: RefID, ID: id}
}

// IsZero reports whether the reference carries nothing at all.
func (r Reference) IsZero() bool { return r.Kind == RefNone }

// String renders the reference for display.
func (r Reference) String() string {
	switch r.Kind {
	case RefID:
		return r.ID
	case RefEmbedded:
		if r.Embedded == nil {
			return "{}"
		}
		for _, s := range []string{r.Embedded.ExternalRef, r.Embedded.InternalID, r.Embedded.ID, r.Embedded.FullCode} {
			if s != "" {
				return "{" + s + "}"
			}
		}
		return "{}"
	case RefCorrupted:
		return r.Raw
	}
	return "-"
}

// UnmarshalJSON accepts a string id, an embedded object, the corrupted
// placeholder string, or null.
func (r *Reference) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Reference{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("account reference: %w", err)
		}
		*r = IDRef(s)
		return nil
	case '{':
		var e EmbeddedAccount
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("account reference: %w", err)
		}
		*r = Reference{Kind: RefEmbedded, Embedded: &e}
		return nil
	}

	// Numeric ids show up from some exports.
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*r = IDRef(n.String())
		return nil
	}
	return fmt.Errorf("account reference: unsupported JSON %s", data)
}

// MarshalJSON writes the reference back in its arrival shape.
func (r Reference) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RefID:
		return json.Marshal(r.ID)
	case RefEmbedded:
		if r.Embedded == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(r.Embedded)
	case RefCorrupted:
		raw := r.Raw
		if raw == "" {
			raw = CorruptedPlaceholder
		}
		return json.Marshal(raw)
	}
	return []byte("null"), nil
}
