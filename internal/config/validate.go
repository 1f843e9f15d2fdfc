package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMissingToken indicates that no Figma access token is configured.
	ErrMissingToken = errors.New("figma.token is required")

	// ErrNoFiles indicates that no file to sync is configured.
	ErrNoFiles = errors.New("at least one of figma.files or figma.file_ids is required")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report config keys rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the shape of cfg. It does not require remote access
// settings, commands that only read the cache run without them.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fieldError(fe))
	}
	return errors.Join(errs...)
}

// ValidateRemote checks that cfg can reach the remote API and names at
// least one file to sync.
func ValidateRemote(cfg *Config) error {
	var errs []error
	if validate.Var(cfg.Figma.Token, "required") != nil {
		errs = append(errs, ErrMissingToken)
	}
	if len(cfg.Figma.Files) == 0 && len(cfg.Figma.FileIDs) == 0 {
		errs = append(errs, ErrNoFiles)
	}
	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) error {
	// Namespace is "Config.cache.dir"; drop the root type.
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}

	switch fe.Tag() {
	case "required", "required_without", "required_if":
		return fmt.Errorf("%s is required", key)
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	case "url":
		return fmt.Errorf("%s must be a valid URL, got %q", key, fe.Value())
	default:
		return fmt.Errorf("%s failed %s=%s (got %v)", key, fe.Tag(), fe.Param(), fe.Value())
	}
}
