package config

import (
	stderrors "errors"

	"github.com/go-playground/validator/v10"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a loaded configuration.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		b := errors.ConfigError("configuration validation failed").WithCause(err)
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			b = b.WithContext("field", verrs[0].Namespace()).WithContext("rule", verrs[0].Tag())
		}
		return b.Build()
	}
	return nil
}
