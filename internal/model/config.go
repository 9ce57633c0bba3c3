package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	tallyerr "github.com/amterp/tally/internal/errors"
)

// GlobalConfig represents the user's global tally configuration.
// Stored at ~/.config/tally/config.toml
// Schema changes require a version bump, see internal/version/version.go.
type GlobalConfig struct {
	TallySchema  string `toml:"tally_schema"`
	DataLocation string `toml:"data_location,omitempty"` // Overrides the app-data directory
	LogLevel     string `toml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	ServePort    int    `toml:"serve_port,omitempty" validate:"omitempty,min=1,max=65535"`
}

var configValidator = validator.New()

// Validate checks field values that TOML decoding alone can't catch.
func (g *GlobalConfig) Validate() error {
	err := configValidator.Struct(g)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := tomlFieldName(fe.Field())
	switch fe.Tag() {
	case "oneof":
		return tallyerr.InvalidField(field, fmt.Sprintf("%v is not one of [%s]", fe.Value(), fe.Param()))
	case "min", "max":
		return tallyerr.InvalidField(field, fmt.Sprintf("%v is out of range (1-65535)", fe.Value()))
	default:
		return tallyerr.InvalidField(field, fe.Error())
	}
}

// EffectiveLogLevel returns the configured log level, or "info" when unset.
func (g *GlobalConfig) EffectiveLogLevel() string {
	if g == nil || g.LogLevel == "" {
		return "info"
	}
	return g.LogLevel
}

func tomlFieldName(goName string) string {
	switch goName {
	case "DataLocation":
		return "data_location"
	case "LogLevel":
		return "log_level"
	case "ServePort":
		return "serve_port"
	}
	return strings.ToLower(goName)
}
