package raw

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Setenv("TJRAW_NAME", "  merge  ")
	t.Setenv("TJRAW_BLANK", "   ")

	c := New().Prefix("TJRAW_")
	require.Equal(t, "merge", c.Get("NAME", "x"))
	require.Equal(t, "x", c.Get("BLANK", "x"))
	require.Equal(t, "x", c.Get("UNSET", "x"))
}

func TestGetBool(t *testing.T) {
	c := New().Prefix("TJRAW_")
	cases := []struct {
		val  string
		def  bool
		want bool
	}{
		{"1", false, true},
		{"TRUE", false, true},
		{"yes", false, true},
		{"On", false, true},
		{"0", true, false},
		{"no", true, false},
		{"off", true, false},
		{"maybe", true, true},
		{"", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.val, func(t *testing.T) {
			t.Setenv("TJRAW_FLAG", tc.val)
			require.Equal(t, tc.want, c.GetBool("FLAG", tc.def))
		})
	}
}

func TestGetInt(t *testing.T) {
	c := New().Prefix("TJRAW_")
	for val, want := range map[string]int{"25": 25, " 7 ": 7, "-3": 9, "1e3": 9, "": 9} {
		t.Run(val, func(t *testing.T) {
			t.Setenv("TJRAW_N", val)
			require.Equal(t, want, c.GetInt("N", 9))
		})
	}
}

func TestGetEnum(t *testing.T) {
	t.Setenv("TJRAW_FORMAT", "JSON")
	t.Setenv("TJRAW_LEVEL", "loud")

	c := New().Prefix("TJRAW_")
	require.Equal(t, "json", c.GetEnum("FORMAT", "console", "json", "console"))
	require.Equal(t, "info", c.GetEnum("LEVEL", "info", "debug", "info", "warn"))
}

func TestPrefixComposes(t *testing.T) {
	t.Setenv("TJRAW_LOG_LEVEL", "debug")
	require.Equal(t, "debug", New().Prefix("TJRAW_").Prefix("LOG_").Get("LEVEL", ""))
}
