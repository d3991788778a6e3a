package branding

import "testing"

func TestEmbeddedValues(t *testing.T) {
	if got := CLIName(); got != "tgen" {
		t.Errorf("CLIName() = %q, want %q", got, "tgen")
	}
	if got := EnvPrefix(); got != "TGEN" {
		t.Errorf("EnvPrefix() = %q, want %q", got, "TGEN")
	}
	if got := Organization(); got != "recap-org" {
		t.Errorf("Organization() = %q, want %q", got, "recap-org")
	}
}

func TestEnvVar(t *testing.T) {
	tests := []struct {
		suffix string
		want   string
	}{
		{"out", "TGEN_OUT"},
		{"LOG_LEVEL", "TGEN_LOG_LEVEL"},
	}
	for _, tt := range tests {
		if got := EnvVar(tt.suffix); got != tt.want {
			t.Errorf("EnvVar(%q) = %q, want %q", tt.suffix, got, tt.want)
		}
	}
}
