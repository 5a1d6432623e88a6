package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"true", true},
		{"YES", true},
		{" on ", true},
		{"1", true},
		{"0", false},
		{"nope", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(SurfaceBackendErrors.EnvKey(), tt.value)
			assert.Equal(t, tt.want, SurfaceBackendErrors.Enabled())
		})
	}
}

func TestSnapshot(t *testing.T) {
	t.Setenv("FLAG_CHAOS_BACKEND", "true")
	t.Setenv("FLAG_SURFACE_BACKEND_ERRORS", "")

	snap := Snapshot()
	assert.Equal(t, map[string]bool{"SURFACE_BACKEND_ERRORS": false, "CHAOS_BACKEND": true}, snap)
	assert.Equal(t, "FLAG_CHAOS_BACKEND", ChaosBackend.EnvKey())
}
