package authgate

import (
	"context"
	"errors"
	"fmt"
)

// Register creates an account for identifier with the given secret. The
// secret is hashed before it reaches the credential store; the plain value is
// never persisted. Returns [ErrAccountExists] when the identifier is taken;
// the existing credential is left untouched.
func (e *Engine) Register(ctx context.Context, identifier, secret string) (UserRecord, error) {
	if e == nil || e.userStore == nil {
		return UserRecord{}, ErrEngineNotReady
	}
	if identifier == "" {
		return UserRecord{}, fmt.Errorf("%w: empty identifier", ErrInvalidCredentials)
	}
	if secret == "" {
		return UserRecord{}, ErrSecretPolicy
	}

	hash, err := e.secretHash.Hash(secret)
	if err != nil {
		return UserRecord{}, err
	}

	user, err := e.userStore.Create(ctx, CreateUserInput{
		Identifier: identifier,
		SecretHash: hash,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricRegisterConflict)
			e.emitAudit(ctx, auditEventRegister, false, identifier, "", ErrAccountExists, nil)
			return UserRecord{}, ErrAccountExists
		}
		e.emitAudit(ctx, auditEventRegister, false, identifier, "", err, nil)
		return UserRecord{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegister, true, identifier, "", nil, nil)

	return user, nil
}
