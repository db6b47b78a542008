// Package fingerprint derives the pseudonymous visitor token.
//
// The token is a keyed BLAKE2b-256 digest over a length-prefixed encoding of the
// source address and user agent, hex encoded. Length prefixes keep ("ab", "c") and
// ("a", "bc") apart. The digest is only ever compared for equality.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Deriver computes visitor tokens. Safe for concurrent use.
type Deriver struct {
	key []byte
}

// New builds a Deriver. Keys longer than 64 bytes are first reduced with an unkeyed
// BLAKE2b-256; an empty key gives a plain unkeyed hash.
func New(key []byte) *Deriver {
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &Deriver{key: append([]byte(nil), key...)}
}

// Inputs describes what was actually hashed.
type Inputs struct {
	AddressMissing   bool
	UserAgentMissing bool
}

// Defaulted reports whether either input was blank and replaced by "".
func (i Inputs) Defaulted() bool {
	return i.AddressMissing || i.UserAgentMissing
}

// Derive returns the token for (address, userAgent). Blank inputs hash as "" and are
// flagged in Inputs; Derive never fails.
func (d *Deriver) Derive(address, userAgent string) (string, Inputs) {
	var in Inputs
	address = strings.TrimSpace(address)
	if address == "" {
		in.AddressMissing = true
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = ""
		in.UserAgentMissing = true
	}

	// New256 only fails for keys over 64 bytes, which New rules out.
	h, _ := blake2b.New256(d.key)
	var lenBuf [4]byte
	for _, field := range [...]string{address, userAgent} {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(field)))
		h.Write(lenBuf[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil)), in
}
