package app

import (
	"errors"
	"fmt"

	"warden/cmd/internal/auth/session"
)

// ValidateSecurityConfig enforces warden's startup security policy.
//
// Fail-fast is intentional: a server that signs tokens with a missing or
// short secret must not come up at all.
func ValidateSecurityConfig() error {
	cfg, err := session.LoadConfigFromEnv()
	if err != nil {
		if errors.Is(err, session.ErrConfig) {
			return fmt.Errorf("security policy: WARDEN_JWT_SECRET must be set and at least %d bytes", session.MinJWTSecretBytes)
		}
		return err
	}
	return cfg.Validate()
}
