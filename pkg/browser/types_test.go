// pkg/browser/types_test.go
package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsXPath(t *testing.T) {
	tests := map[string]bool{
		"//div":                 true,
		"(//a)[2]":              true,
		"./span":                true,
		"#textbox":              false,
		".ytcp-button":          false,
		"div > span":            false,
		"":                      false,
		"/html/body":            true,
		"[aria-label=\"Next\"]": false,
	}
	for sel, want := range tests {
		assert.Equal(t, want, IsXPath(sel), sel)
	}
}

func TestLauncherFunc(t *testing.T) {
	var got LaunchOptions
	l := LauncherFunc(func(ctx context.Context, opts LaunchOptions) (Page, error) {
		got = opts
		return nil, nil
	})
	_, err := l.Launch(context.Background(), LaunchOptions{UserDataDir: "/tmp/p"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/p", got.UserDataDir)
}
