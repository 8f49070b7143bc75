package container

import (
	"crypto/ed25519"
	"encoding/base64"
	"time"

	"github.com/pama-lee/ordo/pkg/ordoerr"
	"github.com/pama-lee/ordo/pkg/ruleset"
)

// SignDocument signs r's canonical JSON (with any existing _signature
// field removed first) and attaches the result as r.Signature, for the
// embedded JSON/YAML signature scheme in spec.md §4.6 — distinct from
// the .ordo binary container's own Save/Load signing, which signs the
// same bytes but carries them in the header rather than in-document.
func SignDocument(r *ruleset.RuleSet, priv ed25519.PrivateKey, signedAt time.Time) error {
	r.Signature = nil
	covered, err := CanonicalJSON(r)
	if err != nil {
		return err
	}
	sig := ed25519.Sign(priv, covered)
	pub := priv.Public().(ed25519.PublicKey)
	r.Signature = &ruleset.Signature{
		Algorithm: "ed25519",
		PublicKey: base64.StdEncoding.EncodeToString(pub),
		Signature: base64.StdEncoding.EncodeToString(sig),
		SignedAt:  SignedAt(signedAt),
	}
	return nil
}

// VerifyDocument checks r's embedded _signature block against one of
// trustedKeys, using the same document-minus-signature canonicalization
// SignDocument produced it with.
func VerifyDocument(r *ruleset.RuleSet, trustedKeys []ed25519.PublicKey) error {
	if r.Signature == nil {
		return &ordoerr.SignatureError{Message: "document has no _signature block"}
	}
	if r.Signature.Algorithm != "ed25519" {
		return &ordoerr.SignatureError{Message: "unsupported signature algorithm " + r.Signature.Algorithm}
	}
	pub, err := base64.StdEncoding.DecodeString(r.Signature.PublicKey)
	if err != nil {
		return &ordoerr.SignatureError{Message: "malformed public_key: " + err.Error()}
	}
	sig, err := base64.StdEncoding.DecodeString(r.Signature.Signature)
	if err != nil {
		return &ordoerr.SignatureError{Message: "malformed signature: " + err.Error()}
	}
	if !keyTrusted(pub, trustedKeys) {
		return &ordoerr.SignatureError{Message: "public key is not in the trusted set"}
	}

	covered, err := CanonicalDocumentJSON(r)
	if err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), covered, sig) {
		return &ordoerr.SignatureError{Message: "signature verification failed"}
	}
	return nil
}
