package container_test

import (
	"crypto/ed25519"
	"testing"

	"github.com/pama-lee/ordo/pkg/container"
	"github.com/pama-lee/ordo/pkg/ruleset"
)

func sampleRuleSet() *ruleset.RuleSet {
	output := ruleset.ExprMap{}
	output.Set("discount", "0.2")
	return &ruleset.RuleSet{
		Config: ruleset.Config{Name: "sample", Version: "1", EntryStep: "done", FieldMissing: "lenient"},
		Steps: map[string]ruleset.Step{
			"done": {
				ID:   "done",
				Kind: ruleset.KindTerminal,
				Result: &ruleset.TerminalResult{
					Code:   "OK",
					Output: output,
				},
			},
		},
	}
}

func TestRoundTripUncompressedUnsigned(t *testing.T) {
	r := sampleRuleSet()
	data, err := container.Save(r, container.SaveOptions{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := container.Load(data, container.LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Config.Name != r.Config.Name || loaded.Config.EntryStep != r.Config.EntryStep {
		t.Fatalf("round-trip mismatch: %+v", loaded.Config)
	}
}

func TestRoundTripCompressed(t *testing.T) {
	r := sampleRuleSet()
	data, err := container.Save(r, container.SaveOptions{Compress: true})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := container.Load(data, container.LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Config.Name != r.Config.Name {
		t.Fatalf("round-trip mismatch after compression: %+v", loaded.Config)
	}
}

func TestRoundTripSignedAndTrusted(t *testing.T) {
	pub, priv, err := container.NewKeyPair()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	r := sampleRuleSet()
	data, err := container.Save(r, container.SaveOptions{Compress: true, Sign: priv})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := container.Load(data, container.LoadOptions{TrustedKeys: []ed25519.PublicKey{pub}})
	if err != nil {
		t.Fatalf("load with trusted key: %v", err)
	}
	if loaded.Config.Name != r.Config.Name {
		t.Fatalf("round-trip mismatch: %+v", loaded.Config)
	}
}

func TestSignedUntrustedKeyRejected(t *testing.T) {
	_, priv, err := container.NewKeyPair()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	otherPub, _, err := container.NewKeyPair()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	r := sampleRuleSet()
	data, err := container.Save(r, container.SaveOptions{Sign: priv})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := container.Load(data, container.LoadOptions{TrustedKeys: []ed25519.PublicKey{otherPub}}); err == nil {
		t.Fatalf("expected untrusted key to be rejected")
	}
}

func TestTamperedPayloadRejected(t *testing.T) {
	r := sampleRuleSet()
	data, err := container.Save(r, container.SaveOptions{Compress: true})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	tampered := append([]byte(nil), data...)
	tampered[len(tampered)-1] ^= 0xFF // flip a byte inside the compressed payload

	if _, err := container.Load(tampered, container.LoadOptions{}); err == nil {
		t.Fatalf("expected tampered payload to be rejected")
	}
}

func TestUnsupportedVersionRejected(t *testing.T) {
	r := sampleRuleSet()
	data, err := container.Save(r, container.SaveOptions{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	tampered := append([]byte(nil), data...)
	tampered[4] = 99

	if _, err := container.Load(tampered, container.LoadOptions{}); err == nil {
		t.Fatalf("expected unsupported version to be rejected")
	}
}
