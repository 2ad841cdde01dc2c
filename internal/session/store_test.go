package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

func TestAccountKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"john.doe@gmail.com", "cookies-john_doe-gmail_com"},
		{"a+b@sub.example.org", "cookies-a_b-sub_example_org"},
		{"weird@@host", "cookies-weird_-host"},
		{"no-at-sign", "cookies-no-at-sign"},
		{"ünï@x.y", "cookies-_n_-x_y"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, AccountKey(tt.in))
		})
	}
}

func FuzzAccountKey(f *testing.F) {
	f.Add([]byte("someone@example.com"))
	f.Fuzz(func(t *testing.T, data []byte) {
		c := fuzz.NewConsumer(data)
		id, err := c.GetString()
		if err != nil {
			return
		}
		key := AccountKey(id)
		require.True(t, strings.HasPrefix(key, "cookies-"))
		for _, r := range key {
			ok := r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			require.Truef(t, ok, "unsafe rune %q in key %q", r, key)
		}
		assert.Equal(t, key, AccountKey(id), "normalization is deterministic")
	})
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	cookies := []schemas.Cookie{
		{Name: "SID", Value: "abc", Domain: ".youtube.com", Path: "/", Expires: 1999999999, Secure: true, HTTPOnly: true, SameSite: "Lax"},
		{Name: "PREF", Value: "hl=en", Domain: ".youtube.com", Path: "/", Session: true},
	}

	t.Run("missing file is no session", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		_, err = store.Load(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("save creates the directory and load returns the cookies", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "yt-auth")
		store, err := NewFileStore(dir)
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, "john.doe@gmail.com", cookies))
		assert.FileExists(t, filepath.Join(dir, "cookies-john_doe-gmail_com.json"))

		got, err := store.Load(ctx, "john.doe@gmail.com")
		require.NoError(t, err)
		assert.Equal(t, cookies, got)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temp files are cleaned up")
	})

	t.Run("file uses browser cookie field names", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, "x@y.z", cookies[:1]))
		raw, err := os.ReadFile(store.Path("x@y.z"))
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"httpOnly":true`)
		assert.Contains(t, string(raw), `"sameSite":"Lax"`)
	})

	t.Run("corrupt file is an IO error", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(store.Path("x@y.z"), []byte("{not json"), 0o600))
		_, err = store.Load(ctx, "x@y.z")
		assert.ErrorIs(t, err, schemas.ErrIO)
	})

	t.Run("empty list is no session", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(store.Path("x@y.z"), []byte("[]"), 0o600))
		_, err = store.Load(ctx, "x@y.z")
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("unwritable directory is an IO error", func(t *testing.T) {
		base := t.TempDir()
		blocker := filepath.Join(base, "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0o600))
		store, err := NewFileStore(filepath.Join(blocker, "sub"))
		require.NoError(t, err)
		err = store.Save(ctx, "x@y.z", cookies)
		assert.ErrorIs(t, err, schemas.ErrIO)
	})

	t.Run("home directory is expanded", func(t *testing.T) {
		store, err := NewFileStore("~/yt-auth")
		require.NoError(t, err)
		assert.False(t, strings.HasPrefix(store.Dir(), "~"))
	})
}
