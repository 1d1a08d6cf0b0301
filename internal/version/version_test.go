package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, "dev", info.Version)
	assert.NotEmpty(t, info.GitCommit)
	assert.NotEmpty(t, info.BuildDate)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestInfoString(t *testing.T) {
	info := GetInfo()
	s := info.String()

	assert.Contains(t, s, "pyqck")
	assert.Contains(t, s, info.Version)
	assert.Contains(t, s, info.GoVersion)
	assert.Contains(t, s, info.Platform)
}

func TestInfoJSON(t *testing.T) {
	info := GetInfo()

	jsonStr, err := info.JSON()
	require.NoError(t, err)

	var parsed Info
	require.NoError(t, json.Unmarshal([]byte(jsonStr), &parsed))

	assert.Equal(t, info.Version, parsed.Version)
	assert.Equal(t, info.GitCommit, parsed.GitCommit)
	assert.Equal(t, info.BuildDate, parsed.BuildDate)
	assert.Equal(t, info.GoVersion, parsed.GoVersion)
	assert.Equal(t, info.Platform, parsed.Platform)
}

func TestShortCommit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"long SHA truncated", "abc1234def5678", "abc1234"},
		{"exact 7 unchanged", "abc1234", "abc1234"},
		{"short unchanged", "abc", "abc"},
		{"empty unchanged", "", ""},
		{"none unchanged", "none", "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shortCommit(tt.input))
		})
	}
}

func TestModuleVersion(t *testing.T) {
	assert.Equal(t, "dev", moduleVersion("", "dev"))
	assert.Equal(t, "dev", moduleVersion("(devel)", "dev"))
	assert.Equal(t, "v1.2.3", moduleVersion("v1.2.3", "dev"))
}

func TestFillFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "GOOS", Value: "linux"},
		},
	}

	t.Run("fills unset values", func(t *testing.T) {
		info := Info{Version: "dev", GitCommit: "none", BuildDate: "unknown"}
		fillFromBuildInfo(&info, bi)

		assert.Equal(t, "v0.4.0", info.Version)
		assert.Equal(t, "0123456", info.GitCommit)
		assert.Equal(t, "2026-01-02T03:04:05Z", info.BuildDate)
	})

	t.Run("keeps linker values", func(t *testing.T) {
		info := Info{Version: "v1.0.0", GitCommit: "fedcba9", BuildDate: "2026-05-01"}
		fillFromBuildInfo(&info, bi)

		assert.Equal(t, Info{Version: "v1.0.0", GitCommit: "fedcba9", BuildDate: "2026-05-01"}, info)
	})
}
