package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPrefix(t *testing.T) {
	merge := New().Prefix("CORE_").Prefix("MERGE_")
	require.Equal(t, "CORE_MERGE_WORKERS", merge.key("WORKERS"))
}

func TestMayString(t *testing.T) {
	c := New().Prefix("S_")
	t.Setenv("S_NAME", " timejar ")

	require.Equal(t, "def", c.MayString("MISSING", "def"))
	require.Equal(t, "timejar", c.MayString("NAME", "x"))
}

func TestMayInt(t *testing.T) {
	c := New().Prefix("I_")
	t.Setenv("I_OK", " 7 ")
	t.Setenv("I_NEG", "-1")
	t.Setenv("I_BAD", "x")

	require.Equal(t, 9, c.MayInt("MISSING", 9))
	require.Equal(t, 7, c.MayInt("OK", 0))
	require.Equal(t, -1, c.MayInt("NEG", 0))
	require.Equal(t, 3, c.MayInt("BAD", 3))
}

func TestMayBool(t *testing.T) {
	c := New().Prefix("B_")
	for in, want := range map[string]bool{"true": true, "YES": true, "on": true, "1": true, "off": false, "No": false} {
		t.Setenv("B_V", in)
		require.Equal(t, want, c.MayBool("V", !want), in)
	}

	t.Setenv("B_BAD", "nope")
	require.True(t, c.MayBool("MISSING", true))
	require.False(t, c.MayBool("BAD", false))
	require.True(t, c.MayBool("BAD", true))
}

func TestMayDuration(t *testing.T) {
	c := New().Prefix("DUR_")
	t.Setenv("DUR_OK", "150ms")
	t.Setenv("DUR_BAD", "nope")

	require.Equal(t, 5*time.Second, c.MayDuration("MISS", 5*time.Second))
	require.Equal(t, 150*time.Millisecond, c.MayDuration("OK", time.Second))
	require.Equal(t, time.Minute, c.MayDuration("BAD", time.Minute))
}

func TestMayLocation(t *testing.T) {
	c := New().Prefix("TZ_")
	t.Setenv("TZ_UTC", "UTC")
	t.Setenv("TZ_BAD", "Mars/Olympus_Mons")

	require.Same(t, time.Local, c.MayLocation("MISSING", time.Local))
	require.Equal(t, "UTC", c.MayLocation("UTC", time.Local).String())
	require.Panics(t, func() { _ = c.MayLocation("BAD", time.Local) })
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("CSV_")
	def := []string{"a", "b"}

	require.Equal(t, def, c.MayCSV("MISS", def))

	t.Setenv("CSV_VALS", " one, two , ,three ,, ")
	require.Equal(t, []string{"one", "two", "three"}, c.MayCSV("VALS", nil))

	t.Setenv("CSV_VALS", " , ,  ,")
	require.Equal(t, []string{"fallback"}, c.MayCSV("VALS", []string{"fallback"}))
}
