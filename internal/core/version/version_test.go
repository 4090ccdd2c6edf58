package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"

	"timejar/internal/platform/testkit"
)

func noBuildInfo() (*debug.BuildInfo, bool) { return nil, false }

func TestInfo_Unstamped(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &readBuildInfo, noBuildInfo)

	b := Info("timejar-merge")
	require.Equal(t, "timejar-merge", b.Service)
	require.Equal(t, "timejar-merge dev (none, unknown)", b.String())
}

func TestInfo_FallsBackToVCS(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &readBuildInfo, func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		}}, true
	})

	b := Info("timejar-export")
	require.Equal(t, "0123456789ab", b.Commit)
	require.Equal(t, "2026-10-01T12:00:00Z", b.Date)
	require.Equal(t, "dev+dirty", b.Version)
}

func TestInfo_StampedCommitWins(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &commit, "abcd")
	testkit.Swap(t, &readBuildInfo, func() (*debug.BuildInfo, bool) {
		t.Fatal("stamped builds must not read vcs data")
		return nil, false
	})

	require.Equal(t, "abcd", Info("timejar-merge").Commit)
}
