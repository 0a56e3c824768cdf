package jsonfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-dochub-client/storage/jsonfile"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := jsonfile.New(path)

	_, ok, err := s.Get("token")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set("token", "abc"))
	require.NoError(t, s.Set("user", `{"id":1}`))

	v, ok, err := jsonfile.New(path).Get("user")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"id":1}`, v)

	require.NoError(t, s.Remove("token"))
	require.NoError(t, s.Remove("token"))
	_, ok, _ = s.Get("token")
	require.False(t, ok)

	require.NoError(t, s.Remove("user"))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err), "file removed once empty")
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := jsonfile.New(path).Get("token")
	require.Error(t, err)
}
