// Package secrets resolves credential references so plain secrets need
// not live in the site database.
//
// A credential field may hold a literal value or a reference:
//
//	env:NAME    the value of environment variable NAME
//	file:PATH   the trimmed contents of PATH (~ is expanded)
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
)

// Reference prefixes.
const (
	EnvPrefix  = "env:"
	FilePrefix = "file:"
)

// Ensure Resolver implements the interface.
var _ driven.SecretResolver = (*Resolver)(nil)

// Resolver resolves env: and file: references.
type Resolver struct {
	lookup func(string) (string, bool)
}

// NewResolver creates a resolver reading the process environment.
func NewResolver() *Resolver {
	return &Resolver{lookup: os.LookupEnv}
}

// Resolve returns credentials with every reference replaced by its value.
// An unresolvable reference is an invalid configuration.
func (r *Resolver) Resolve(_ context.Context, c domain.Credentials) (domain.Credentials, error) {
	var err error
	if c.Username, err = r.resolve(c.Username); err != nil {
		return c, err
	}
	if c.Password, err = r.resolve(c.Password); err != nil {
		return c, err
	}
	if c.AccountID, err = r.resolve(c.AccountID); err != nil {
		return c, err
	}
	return c, nil
}

func (r *Resolver) resolve(value string) (string, error) {
	switch {
	case strings.HasPrefix(value, EnvPrefix):
		name := strings.TrimPrefix(value, EnvPrefix)
		v, ok := r.lookup(name)
		if !ok {
			return "", fmt.Errorf("%w: environment variable %s is not set", domain.ErrInvalidConfiguration, name)
		}
		return v, nil
	case strings.HasPrefix(value, FilePrefix):
		path, err := homedir.Expand(strings.TrimPrefix(value, FilePrefix))
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return value, nil
	}
}

// IsReference reports whether value points elsewhere instead of holding
// the secret itself.
func IsReference(value string) bool {
	return strings.HasPrefix(value, EnvPrefix) || strings.HasPrefix(value, FilePrefix)
}
