package session

// Challenge is a pending password-reset OTP bound to a session. Code is the
// issued 6-digit value, Identifier the account it was issued for, IssuedAt
// the Unix second of issuance (expiry policy is applied by the engine).
type Challenge struct {
	Code       uint32
	Identifier string
	IssuedAt   int64
}

// Session is the server-side record behind an opaque handle. Identifier is
// empty for anonymous sessions, which exist only to carry a pending
// Challenge. Timestamps are Unix seconds.
type Session struct {
	SessionID  string
	Identifier string

	Challenge *Challenge

	CreatedAt int64
	ExpiresAt int64
}

// Authenticated reports whether the session belongs to a logged-in user.
func (s *Session) Authenticated() bool {
	return s != nil && s.Identifier != ""
}
