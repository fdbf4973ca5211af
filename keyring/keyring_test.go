package keyring

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/yllada/vpn-tray/common"
)

func TestStore_SystemKeyring(t *testing.T) {
	gokeyring.MockInit()
	dir := t.TempDir()

	s := New(dir, nil)
	assert.False(t, s.UsesLocalFile())
	assert.False(t, s.HasToken())

	require.NoError(t, s.SetToken("  abc123\n"))
	token, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	value, ok := s.Lookup("token")
	assert.True(t, ok)
	assert.Equal(t, "abc123", value)
	_, ok = s.Lookup("password")
	assert.False(t, ok)

	require.NoError(t, s.ClearToken())
	_, err = s.Token()
	assert.True(t, errors.Is(err, common.ErrCredentialsNotFound))

	_, err = os.Stat(filepath.Join(dir, common.CredentialsFileName))
	assert.True(t, os.IsNotExist(err), "nothing written to disk")
}

func TestStore_LocalFallback(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("no secret service"))
	dir := t.TempDir()

	s := New(dir, nil)
	require.True(t, s.UsesLocalFile())

	require.NoError(t, s.SetToken("abc123"))
	path := filepath.Join(dir, common.CredentialsFileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "abc123")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened := New(dir, nil)
	token, err := reopened.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	require.NoError(t, reopened.ClearToken())
	assert.False(t, New(dir, nil).HasToken())
}

func TestStore_CorruptFile(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("no secret service"))
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, common.CredentialsFileName), []byte("bm90IGVuY3J5cHRlZA=="), 0600))

	_, err := New(dir, nil).Token()
	assert.True(t, errors.Is(err, common.ErrDecryption), "err = %v", err)
}

func TestStore_EmptyArguments(t *testing.T) {
	gokeyring.MockInit()
	s := New(t.TempDir(), nil)

	assert.Error(t, s.Set("", "x"))
	assert.Error(t, s.Set("k", ""))
	_, err := s.Get("")
	assert.Error(t, err)
	assert.Error(t, s.Delete(""))
}

func TestEncryptDecrypt(t *testing.T) {
	plain := []byte(`{"access-token":"abc"}`)

	a, err := encrypt(plain)
	require.NoError(t, err)
	b, err := encrypt(plain)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh salt and nonce each time")

	got, err := decrypt(a)
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	raw, err := base64.StdEncoding.DecodeString(string(a))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	_, err = decrypt([]byte(base64.StdEncoding.EncodeToString(raw)))
	assert.True(t, errors.Is(err, common.ErrDecryption))
}
