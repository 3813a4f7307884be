package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name       string
		args       []string
		wantExit   bool
		wantErr    string
		checkValid func(t *testing.T, path, level string, concurrent int)
	}{
		{
			name: "positional pipeline path",
			args: []string{"pipe.hcl"},
			checkValid: func(t *testing.T, path, level string, concurrent int) {
				assert.Equal(t, "pipe.hcl", path)
				assert.Equal(t, "info", level)
				assert.Equal(t, 0, concurrent)
			},
		},
		{
			name: "flags",
			args: []string{"-pipeline", "pipe.hcl", "-log-level", "DEBUG", "-max-concurrent", "4"},
			checkValid: func(t *testing.T, path, level string, concurrent int) {
				assert.Equal(t, "pipe.hcl", path)
				assert.Equal(t, "debug", level)
				assert.Equal(t, 4, concurrent)
			},
		},
		{
			name: "shorthand flag",
			args: []string{"-p", "other.hcl"},
			checkValid: func(t *testing.T, path, level string, concurrent int) {
				assert.Equal(t, "other.hcl", path)
			},
		},
		{name: "no path prints usage", args: nil, wantExit: true},
		{name: "help flag", args: []string{"-h"}, wantExit: true},
		{
			name:    "invalid log level",
			args:    []string{"-log-level", "loud", "pipe.hcl"},
			wantErr: "invalid log-level",
		},
		{
			name:    "invalid log format",
			args:    []string{"-log-format", "xml", "pipe.hcl"},
			wantErr: "invalid log-format",
		},
		{
			name:    "negative concurrency",
			args:    []string{"-max-concurrent", "-1", "pipe.hcl"},
			wantErr: "invalid max-concurrent",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			cfg, exit, err := Parse(tc.args, &out)

			if tc.wantErr != "" {
				require.Error(t, err)
				exitErr, ok := err.(*ExitError)
				require.True(t, ok)
				assert.Equal(t, 2, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.wantExit {
				assert.True(t, exit)
				assert.Nil(t, cfg)
				return
			}
			require.NotNil(t, cfg)
			tc.checkValid(t, cfg.PipelinePath, cfg.LogLevel, cfg.MaxConcurrent)
		})
	}
}
