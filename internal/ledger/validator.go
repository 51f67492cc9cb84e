package ledger

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// ProofValidator checks attendance proofs before the ledger stores them.
// The ledger itself never interprets proof bytes; a real verifier can be
// substituted without touching ledger logic.
type ProofValidator interface {
	Validate(eventID string, proof []byte) error
}

// AcceptAllValidator accepts every non-empty proof, preserving the original
// behavior where the stored bytes are display-only and never verified.
type AcceptAllValidator struct{}

func (AcceptAllValidator) Validate(eventID string, proof []byte) error { return nil }

// DigestValidator requires the proof to be the keyed BLAKE2b-256 digest of
// the event id. Check-in terminals holding the shared secret can produce it;
// anything else is rejected.
type DigestValidator struct {
	secret []byte
}

// NewDigestValidator returns a validator keyed with secret. The secret must
// fit blake2b's key size.
func NewDigestValidator(secret []byte) (*DigestValidator, error) {
	if len(secret) == 0 || len(secret) > blake2b.Size {
		return nil, errors.New("ledger: digest validator secret must be 1-64 bytes")
	}
	return &DigestValidator{secret: append([]byte(nil), secret...)}, nil
}

// Expected computes the digest a valid proof must carry for eventID.
func (v *DigestValidator) Expected(eventID string) []byte {
	h, _ := blake2b.New256(v.secret)
	h.Write([]byte(eventID))
	return h.Sum(nil)
}

func (v *DigestValidator) Validate(eventID string, proof []byte) error {
	want := v.Expected(eventID)
	if subtle.ConstantTimeCompare(want, proof) != 1 {
		return errors.New("proof digest mismatch")
	}
	return nil
}
