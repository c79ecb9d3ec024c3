package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"math/big"
)

// SessionID is an opaque 16-byte server-generated session handle.
type SessionID [16]byte

// OTPMin and OTPMax bound the 6-digit reset code range, inclusive.
const (
	OTPMin = 100000
	OTPMax = 999999
)

// NewSessionID draws a session handle from crypto/rand.
func NewSessionID() (SessionID, error) {
	var sid SessionID
	_, err := rand.Read(sid[:])
	return sid, err
}

func (s SessionID) Bytes() []byte {
	return s[:]
}

func (s SessionID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(s[:])
}

// ParseSessionID decodes a handle previously produced by [SessionID.String].
func ParseSessionID(sessionID string) (SessionID, error) {
	var sid SessionID

	raw, err := base64.RawURLEncoding.DecodeString(sessionID)
	if err != nil {
		return sid, err
	}
	if len(raw) != len(sid) {
		return sid, errors.New("invalid session id size")
	}

	copy(sid[:], raw)
	return sid, nil
}

// NewOTP draws a uniformly random code in [OTPMin, OTPMax].
func NewOTP() (uint32, error) {
	span := big.NewInt(OTPMax - OTPMin + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, err
	}
	return uint32(OTPMin + n.Int64()), nil
}
