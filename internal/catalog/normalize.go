package catalog

import (
	"strings"

	"github.com/theirongolddev/anggaran/internal/model"
)

// NormalizeRef extracts a clean account id from any reference shape.
//
// A plain id is returned as-is. An embedded object yields its external
// reference marker, else its internal id, else the id of the catalog entry
// whose full code matches the embedded full code. Corrupted and empty
// references yield nothing. lookup may be nil, which disables the full-code
// fallback.
func NormalizeRef(lookup Lookup, ref model.Reference) (string, bool) {
	switch ref.Kind {
	case model.RefID:
		id := strings.TrimSpace(ref.ID)
		return id, id != ""
	case model.RefEmbedded:
		e := ref.Embedded
		if e == nil {
			return "", false
		}
		for _, id := range []string{e.ExternalRef, e.InternalID, e.ID} {
			if id = strings.TrimSpace(id); id != "" {
				return id, true
			}
		}
		if lookup == nil {
			return "", false
		}
		for _, code := range []string{e.FullCode, e.Code} {
			if code == "" {
				continue
			}
			if ac, ok := lookup.FindByFullCode(code); ok {
				return ac.ID, true
			}
		}
	case model.RefNone, model.RefCorrupted:
	}
	return "", false
}
