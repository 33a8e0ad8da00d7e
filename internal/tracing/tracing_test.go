package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		expectError bool
		enabled     bool
	}{
		{
			name:    "disabled without endpoint",
			cfg:     Config{},
			enabled: false,
		},
		{
			name:    "plaintext",
			cfg:     Config{Endpoint: "localhost:4317"},
			enabled: true,
		},
		{
			name:    "TLS without verification",
			cfg:     Config{Endpoint: "localhost:4317", TLSInsecure: true},
			enabled: true,
		},
		{
			name:        "missing CA file",
			cfg:         Config{Endpoint: "localhost:4317", TLSCAPath: "/path/to/missing-ca.crt"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, p.Enabled())
			assert.NotNil(t, p.Tracer("test"))
			require.NoError(t, p.Start(context.Background()))
			assert.NoError(t, p.Stop(context.Background()))
		})
	}
}

func TestNewProvider_InvalidCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0600))

	_, err := NewProvider(Config{Endpoint: "localhost:4317", TLSCAPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append CA certificate")
}

func TestProviderName(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	assert.Equal(t, "Tracing Provider", p.Name())
}
