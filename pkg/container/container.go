// Package container implements the .ordo binary format (spec.md §4.6): a
// small fixed header around a canonical-JSON ruleset payload, optionally
// deflate-compressed and optionally Ed25519-signed.
package container

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/pama-lee/ordo/pkg/ordoerr"
	"github.com/pama-lee/ordo/pkg/ruleset"
)

const (
	magic          = "ORDO"
	formatVersion  = 1
	headerSize     = 14 // magic(4) + version(1) + flags(1) + crc32(4) + length(4)
	signatureBlock = 96 // 32B public key + 64B signature

	flagHasSignature = 1 << 0
	flagCompressed   = 1 << 1
)

// SaveOptions controls how Save builds a .ordo file.
type SaveOptions struct {
	Compress bool
	// Sign, when non-nil, signs the uncompressed canonical payload with
	// this Ed25519 private key and sets HAS_SIGNATURE.
	Sign ed25519.PrivateKey
}

// LoadOptions controls how Load verifies a .ordo file.
type LoadOptions struct {
	// TrustedKeys, when non-empty, activates signature verification: a
	// signed file whose embedded public key is not in this set, or whose
	// signature does not verify, is rejected. An unsigned file is
	// accepted regardless (spec.md §4.6 only mandates verification "if a
	// trusted-keys policy is active" AND the file carries a signature).
	TrustedKeys []ed25519.PublicKey
}

// Save canonicalizes r, optionally compresses and signs it, and returns
// the complete .ordo byte stream, per the Save procedure in spec.md §4.6.
func Save(r *ruleset.RuleSet, opts SaveOptions) ([]byte, error) {
	payload, err := CanonicalJSON(r)
	if err != nil {
		return nil, fmt.Errorf("container: canonicalizing ruleset: %w", err)
	}

	crc := crc32.ChecksumIEEE(payload)

	var signature []byte
	var publicKey ed25519.PublicKey
	if opts.Sign != nil {
		publicKey = opts.Sign.Public().(ed25519.PublicKey)
		signature = ed25519.Sign(opts.Sign, payload)
	}

	body := payload
	flags := byte(0)
	if opts.Compress {
		compressed, err := deflate(payload)
		if err != nil {
			return nil, fmt.Errorf("container: compressing payload: %w", err)
		}
		body = compressed
		flags |= flagCompressed
	}
	if signature != nil {
		flags |= flagHasSignature
	}

	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.WriteByte(formatVersion)
	buf.WriteByte(flags)

	var crcBytes, lenBytes [4]byte
	binary.LittleEndian.PutUint32(crcBytes[:], crc)
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(body)))
	buf.Write(crcBytes[:])
	buf.Write(lenBytes[:])

	if signature != nil {
		buf.Write(publicKey)
		buf.Write(signature)
	}
	buf.Write(body)

	return buf.Bytes(), nil
}

// Load parses and validates a .ordo byte stream per the Load procedure in
// spec.md §4.6, in this order: magic/version, decompression, signature (if
// applicable, checked against the decompressed payload), CRC, JSON parse,
// ruleset validation.
func Load(data []byte, opts LoadOptions) (*ruleset.RuleSet, error) {
	if len(data) < headerSize {
		return nil, &ordoerr.FormatError{Message: "container: truncated header"}
	}
	if string(data[0:4]) != magic {
		return nil, &ordoerr.FormatError{Message: "container: bad magic"}
	}
	version := data[4]
	if version > formatVersion {
		return nil, &ordoerr.FormatError{Message: fmt.Sprintf("container: unsupported format version %d", version)}
	}
	flags := data[5]
	crcWant := binary.LittleEndian.Uint32(data[6:10])
	bodyLen := binary.LittleEndian.Uint32(data[10:14])

	offset := headerSize
	hasSignature := flags&flagHasSignature != 0

	var publicKey, signature []byte
	if hasSignature {
		if len(data) < offset+signatureBlock {
			return nil, &ordoerr.FormatError{Message: "container: truncated signature block"}
		}
		publicKey = data[offset : offset+32]
		signature = data[offset+32 : offset+96]
		offset += signatureBlock
	}

	if len(data) < offset+int(bodyLen) {
		return nil, &ordoerr.FormatError{Message: "container: truncated payload"}
	}
	body := data[offset : offset+int(bodyLen)]

	// Save signs the uncompressed canonical JSON, so verification here
	// must happen after decompression, not before.
	payload := body
	if flags&flagCompressed != 0 {
		decompressed, err := inflate(body)
		if err != nil {
			return nil, &ordoerr.IntegrityError{Message: "container: decompression failed: " + err.Error()}
		}
		payload = decompressed
	}

	if len(opts.TrustedKeys) > 0 && hasSignature {
		if !keyTrusted(publicKey, opts.TrustedKeys) {
			return nil, &ordoerr.SignatureError{Message: "container: public key is not in the trusted set"}
		}
		if !ed25519.Verify(ed25519.PublicKey(publicKey), payload, signature) {
			return nil, &ordoerr.SignatureError{Message: "container: signature verification failed"}
		}
	}

	if crc32.ChecksumIEEE(payload) != crcWant {
		return nil, &ordoerr.IntegrityError{Message: "container: CRC-32 mismatch"}
	}

	r, err := ruleset.FromJSON(payload)
	if err != nil {
		return nil, &ordoerr.FormatError{Message: "container: " + err.Error()}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func keyTrusted(key []byte, trusted []ed25519.PublicKey) bool {
	for _, k := range trusted {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}

// NewKeyPair generates a fresh Ed25519 key pair for the `ordo keygen`
// command.
func NewKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(nil)
}

// SignedAt formats t as the RFC 3339 timestamp the embedded _signature
// block's signed_at field expects.
func SignedAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
