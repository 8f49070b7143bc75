package container_test

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/pama-lee/ordo/pkg/container"
)

func TestSignAndVerifyDocument(t *testing.T) {
	pub, priv, err := container.NewKeyPair()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	r := sampleRuleSet()
	signedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := container.SignDocument(r, priv, signedAt); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if r.Signature == nil {
		t.Fatalf("expected Signature to be set")
	}
	if err := container.VerifyDocument(r, []ed25519.PublicKey{pub}); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyDocumentDetectsTamper(t *testing.T) {
	pub, priv, err := container.NewKeyPair()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	r := sampleRuleSet()
	if err := container.SignDocument(r, priv, time.Now().UTC()); err != nil {
		t.Fatalf("sign: %v", err)
	}

	r.Config.Name = "tampered"

	if err := container.VerifyDocument(r, []ed25519.PublicKey{pub}); err == nil {
		t.Fatalf("expected tampered document to fail verification")
	}
}
