package container

import (
	"github.com/pama-lee/ordo/pkg/ruleset"
	"github.com/pama-lee/ordo/pkg/value"
)

// CanonicalJSON renders r's JSON representation with object keys sorted
// lexicographically and no insignificant whitespace (spec.md §4.6), the
// form covered by the .ordo CRC and signature. It round-trips through
// r.ToJSON and value.FromJSON rather than re-walking the ruleset's Go
// structs, so canonicalization always matches the same field set the
// wire codec produces.
func CanonicalJSON(r *ruleset.RuleSet) ([]byte, error) {
	raw, err := r.ToJSON()
	if err != nil {
		return nil, err
	}
	v, err := value.FromJSON(raw)
	if err != nil {
		return nil, err
	}
	return v.MarshalCanonicalJSON()
}

// CanonicalDocumentJSON canonicalizes r's JSON representation with the
// top-level _signature field removed, the form an embedded signature's
// signature bytes actually cover (spec.md §4.6: "covers the canonical
// JSON of the document with the _signature field removed").
func CanonicalDocumentJSON(r *ruleset.RuleSet) ([]byte, error) {
	stripped := *r
	stripped.Signature = nil
	return CanonicalJSON(&stripped)
}
