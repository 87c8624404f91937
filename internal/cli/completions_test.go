package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestCompleteSSLModes(t *testing.T) {
	got, directive := completeSSLModes(nil, nil, "ver")
	assert.Equal(t, []string{"verify-ca", "verify-full"}, got)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)

	got, _ = completeSSLModes(nil, nil, "")
	assert.Equal(t, sslModes, got)
}

func TestCompleteDriversAndDialects(t *testing.T) {
	got, _ := completeDrivers(nil, nil, "lib")
	assert.Equal(t, []string{"libpq"}, got)

	got, _ = completeDialects(nil, nil, "p")
	assert.Equal(t, []string{"postgres"}, got)

	got, _ = completeDialects(nil, nil, "snow")
	assert.Empty(t, got)
}

func TestCompleteConfigKeys(t *testing.T) {
	got, directive := completeConfigKeys(nil, nil, "s3.")
	assert.Equal(t, []string{"s3.log_data=", "s3.log_jsonpath=", "s3.region=", "s3.song_data="}, got)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp|cobra.ShellCompDirectiveNoSpace, directive)

	got, _ = completeConfigKeys(nil, nil, "s3.region=us")
	assert.Empty(t, got)
}

func TestCompleteDirectories(t *testing.T) {
	_, directive := completeDirectories(nil, nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveFilterDirs, directive)

	_, directive = completeDirectories(nil, []string{"./warehouse"}, "")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}
