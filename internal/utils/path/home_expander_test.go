package pathutils

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHomeExpanderExpand(t *testing.T) {
	expander := NewHomeExpanderWithProvider(func() (string, error) { return "/home/maintainer", nil })

	testCases := []struct {
		name         string
		input        string
		expectedPath string
	}{
		{name: "bare_tilde", input: "~", expectedPath: "/home/maintainer"},
		{name: "tilde_prefix", input: "~/fleet", expectedPath: filepath.Join("/home/maintainer", "fleet")},
		{name: "absolute", input: "/srv/fleet", expectedPath: "/srv/fleet"},
		{name: "other_user", input: "~other/fleet", expectedPath: "~other/fleet"},
		{name: "empty", input: "", expectedPath: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expectedPath, expander.Expand(testCase.input))
		})
	}
}

func TestHomeExpanderKeepsPathWhenHomeUnavailable(t *testing.T) {
	expander := NewHomeExpanderWithProvider(func() (string, error) { return "", errors.New("no home") })

	require.Equal(t, "~/fleet", expander.Expand("~/fleet"))
}
