package model

import (
	"testing"

	tallyerr "github.com/amterp/tally/internal/errors"
)

func TestGlobalConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GlobalConfig
		wantErr bool
	}{
		{"empty", GlobalConfig{}, false},
		{"valid", GlobalConfig{LogLevel: "debug", ServePort: 8080}, false},
		{"bad level", GlobalConfig{LogLevel: "loud"}, true},
		{"port too high", GlobalConfig{ServePort: 70000}, true},
		{"negative port", GlobalConfig{ServePort: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !tallyerr.IsValidationError(err) {
				t.Errorf("expected validation error, got %T: %v", err, err)
			}
		})
	}
}

func TestEffectiveLogLevel(t *testing.T) {
	var nilCfg *GlobalConfig
	if got := nilCfg.EffectiveLogLevel(); got != "info" {
		t.Errorf("nil config level = %q", got)
	}
	if got := (&GlobalConfig{LogLevel: "warn"}).EffectiveLogLevel(); got != "warn" {
		t.Errorf("level = %q", got)
	}
}
