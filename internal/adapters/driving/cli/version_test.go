package cli

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	prev := version
	version = v
	t.Cleanup(func() { version = prev })
}

func TestVersionCmd_Text(t *testing.T) {
	resetFlags()
	withVersion(t, "1.4.2")

	out, err := execute(t, "", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "esgmon version 1.4.2")
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionCmd_JSON(t *testing.T) {
	resetFlags()
	withVersion(t, "dev")
	t.Cleanup(resetFlags)

	out, err := execute(t, "", "version", "--json")
	require.NoError(t, err)

	var info buildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, runtime.Version(), info.Go)
}

func TestVersionCmd_SkipsBootstrap(t *testing.T) {
	assert.Equal(t, "true", versionCmd.Annotations[skipBootstrap])
}
