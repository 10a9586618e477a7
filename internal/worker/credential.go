package worker

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// identityPattern constrains the identity half of a worker credential.
var identityPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const minSecretLen = 16

// CredentialValidator checks worker credentials of the form
// "identity:secret" and extracts the identity.
type CredentialValidator struct{}

// NewCredentialValidator creates a worker credential validator.
func NewCredentialValidator() CredentialValidator {
	return CredentialValidator{}
}

// ValidateWorkerCredential verifies the credential format and returns the
// worker identity embedded in it.
func (CredentialValidator) ValidateWorkerCredential(_ context.Context, token string) (string, error) {
	identity, secret, ok := strings.Cut(token, ":")
	if !ok {
		return "", fmt.Errorf("%w: expected identity:secret format", domain.ErrInvalidCredential)
	}
	if !identityPattern.MatchString(identity) {
		return "", fmt.Errorf("%w: malformed identity", domain.ErrInvalidCredential)
	}
	if len(secret) < minSecretLen {
		return "", fmt.Errorf("%w: secret too short", domain.ErrInvalidCredential)
	}
	return identity, nil
}
