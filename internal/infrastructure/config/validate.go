package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator names fields by their mapstructure key so errors read like the config file
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks field ranges and the production rules. All violations are reported.
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, fieldError(fe))
		}
	}

	if c.IsProduction() {
		for _, rule := range productionRules {
			if rule.violated(c) {
				errs = append(errs, errors.New(rule.message))
			}
		}
	}

	return errors.Join(errs...)
}

// fieldError turns "Config.database.max_idle_conns" into a message keyed "database.max_idle_conns"
func fieldError(fe validator.FieldError) error {
	_, key, _ := strings.Cut(fe.Namespace(), ".")

	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	case "required":
		return fmt.Errorf("%s is required", key)
	case "numeric":
		return fmt.Errorf("%s must be numeric, got %q", key, fe.Value())
	case "gt":
		return fmt.Errorf("%s must be positive", key)
	case "gte":
		return fmt.Errorf("%s cannot be negative", key)
	case "lte":
		return fmt.Errorf("%s must be at most %s, got %v", key, fe.Param(), fe.Value())
	case "ltefield":
		return fmt.Errorf("%s (%v) cannot exceed %s", key, fe.Value(), fieldKey(fe.Param()))
	}
	return fmt.Errorf("%s failed %s validation", key, fe.Tag())
}

// fieldKey maps the Go field names used in cross-field tags to config keys
func fieldKey(goName string) string {
	if goName == "MaxOpenConns" {
		return "database.max_open_conns"
	}
	return goName
}

type productionRule struct {
	violated func(*Config) bool
	message  string
}

var productionRules = []productionRule{
	{
		violated: func(c *Config) bool { return c.Database.Driver == DriverSQLite },
		message:  "database.driver sqlite is for local use only, not production",
	},
	{
		violated: func(c *Config) bool { return c.Database.SeedSample },
		message:  "database.seed_sample must be false in production",
	},
	{
		violated: func(c *Config) bool { return c.Database.Password == "" },
		message:  "database.password is required in production",
	},
	{
		violated: func(c *Config) bool { return c.Database.SSLMode == "disable" },
		message:  "database.sslmode cannot be 'disable' in production",
	},
	{
		violated: func(c *Config) bool { return c.Telemetry.DBLogFullSQL },
		message:  "telemetry.db_log_full_sql must be false in production, traces would carry query arguments",
	},
}
