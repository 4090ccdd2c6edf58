package main

import (
	"flag"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPassed_OnlyExplicitFlags(t *testing.T) {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	strict := fs.Bool("strict", true, "")
	fs.Int("workers", -1, "")

	require.NoError(t, fs.Parse([]string{"-workers", "2"}))
	require.True(t, *strict)
	require.False(t, passed(fs, "strict"))
	require.True(t, passed(fs, "workers"))

	fs2 := flag.NewFlagSet("merge", flag.ContinueOnError)
	fs2.Bool("strict", true, "")
	require.NoError(t, fs2.Parse([]string{"-strict=false"}))
	require.True(t, passed(fs2, "strict"))
}

func TestMustSetEnv_EmptyKeepsEnvironment(t *testing.T) {
	t.Setenv("CORE_MERGE_STRICT_DECODE", "0")
	mustSetEnv("CORE_MERGE_STRICT_DECODE", "")
	require.Equal(t, "0", os.Getenv("CORE_MERGE_STRICT_DECODE"))

	mustSetEnv("CORE_MERGE_STRICT_DECODE", boolEnv(true))
	require.Equal(t, "1", os.Getenv("CORE_MERGE_STRICT_DECODE"))
}
