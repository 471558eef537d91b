package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/vyrodovalexey/webfunc/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// structValidator returns the shared validator, reporting fields by their
// YAML names.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateConfig validates cfg. The returned error matches
// util.ErrConfigInvalid and wraps ValidationErrors.
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	if cfg == nil {
		errs = append(errs, ValidationError{Message: "configuration is nil"})
		return util.NewConfigErrorWithCause("", errs.Error(), errs)
	}

	errs = append(errs, validateStruct(cfg)...)
	errs = append(errs, validateCrossField(cfg)...)

	if errs.HasErrors() {
		return util.NewConfigErrorWithCause("", errs.Error(), errs)
	}
	return nil
}

func validateStruct(cfg *Config) ValidationErrors {
	err := structValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Message: err.Error()}}
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Path:    strings.TrimPrefix(fe.Namespace(), "Config."),
			Message: describe(fe),
		})
	}
	return errs
}

// describe renders a field error in words.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got '%v'", fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "startswith":
		return fmt.Sprintf("must start with '%s'", fe.Param())
	case "hostname_port":
		return fmt.Sprintf("must be host:port, got '%v'", fe.Value())
	case "cidr|ip":
		return fmt.Sprintf("must be an IP address or CIDR, got '%v'", fe.Value())
	default:
		return fmt.Sprintf("failed '%s' validation", fe.Tag())
	}
}

func validateCrossField(cfg *Config) ValidationErrors {
	var errs ValidationErrors

	if _, err := cfg.Mode(); err != nil {
		errs = append(errs, ValidationError{
			Path:    "paramsMode",
			Message: fmt.Sprintf("must be one of [all body route none], got '%s'", cfg.ParamsMode),
		})
	}

	if cfg.Env.Active == "" {
		errs = append(errs, ValidationError{Path: "env.active", Message: "is required"})
	} else if _, ok := cfg.ActiveEnvironment(); !ok {
		errs = append(errs, ValidationError{
			Path:    "env.active",
			Message: fmt.Sprintf("environment '%s' is not defined", cfg.Env.Active),
		})
	}

	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerSecond == 0 {
		errs = append(errs, ValidationError{
			Path:    "rateLimit.requestsPerSecond",
			Message: "must be positive when rate limiting is enabled",
		})
	}

	if cfg.CircuitBreaker.Enabled && cfg.CircuitBreaker.Threshold == 0 {
		errs = append(errs, ValidationError{
			Path:    "circuitBreaker.threshold",
			Message: "must be positive when the circuit breaker is enabled",
		})
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.Server.Port && cfg.HostingType().Listens() {
		errs = append(errs, ValidationError{
			Path:    "metrics.port",
			Message: fmt.Sprintf("port %d already used by the server", cfg.Metrics.Port),
		})
	}

	return errs
}
