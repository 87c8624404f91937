package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInteractive(t *testing.T) {
	tests := []struct {
		name           string
		nonInteractive string
		ci             string
	}{
		{"explicit opt-out", "1", ""},
		{"CI", "", "true"},
		{"no terminal in tests", "", ""},
		{"opt-out only honors 1", "true", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DWHETL_NON_INTERACTIVE", tt.nonInteractive)
			t.Setenv("CI", tt.ci)
			assert.False(t, IsInteractive())
		})
	}
}

func TestNewApprover(t *testing.T) {
	t.Setenv("CI", "true")

	forced := NewApprover(true, false)
	_, ok := forced.(*ForcedApprover)
	assert.True(t, ok, "--force should use the countdown approver")

	assert.Nil(t, NewApprover(false, false), "non-interactive sessions cannot confirm a reset")
}

func TestPromptPassword(t *testing.T) {
	original := readPassword
	t.Cleanup(func() { readPassword = original })

	readPassword = func() ([]byte, error) { return []byte("s3cret\r\n"), nil }
	pw, err := PromptPassword("awsuser", "dwhcluster")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)

	readPassword = func() ([]byte, error) { return nil, errors.New("inappropriate ioctl for device") }
	_, err = PromptPassword("awsuser", "dwhcluster")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read password")
}
