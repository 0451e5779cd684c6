package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-a", "http://127.0.0.1:9090", "-i", "10", "-t", "4", "-d", "x.db", "-l", "debug"},
			expected: &Config{ServerBaseURL: "http://127.0.0.1:9090", DatabasePath: "x.db", RequestTimeout: 4 * time.Second, SessionCheckInterval: 10 * time.Second, LogLevel: "debug"}},
		{name: "Test2 unknown flags ignored", args: []string{"cmd", "-x", "1", "-a", "http://h"},
			expected: &Config{ServerBaseURL: "http://h"}},
		{name: "Test3 incorrect check interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true},
		{name: "Test4 incorrect timeout", args: []string{"cmd", "-t", "1s"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}

func TestParseFlags_KeepsDurationsWithoutFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd", "-l", "warn"}

	config := &Config{RequestTimeout: 250 * time.Millisecond, SessionCheckInterval: 1500 * time.Millisecond}
	parseFlags(config)

	assert.Empty(t, cmp.Diff(&Config{
		RequestTimeout:       250 * time.Millisecond,
		SessionCheckInterval: 1500 * time.Millisecond,
		LogLevel:             "warn",
	}, config))
}
