package openai

import (
	"context"
)

// Validator implements domain.ModelCredentialValidator by probing the
// provider with a candidate key.
type Validator struct {
	base Config
}

// NewValidator creates a model credential validator. The base config
// supplies everything except the per-tenant API key.
func NewValidator(base Config) *Validator {
	return &Validator{base: base}
}

// ValidateModelCredential checks the key against the provider.
func (v *Validator) ValidateModelCredential(ctx context.Context, key string) error {
	cfg := v.base
	cfg.APIKey = key
	return NewTextModel(&cfg).ValidateCredential(ctx)
}
