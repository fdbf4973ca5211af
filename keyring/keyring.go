// Package keyring provides secure credential storage.
// It uses the system keyring when available, falling back to
// encrypted local file storage when not.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/argon2"

	"github.com/yllada/vpn-tray/action"
	"github.com/yllada/vpn-tray/common"
)

const (
	// serviceName is the identifier used in the system keyring.
	serviceName = "vpn-tray"
	// tokenKey holds the VPN service access token.
	tokenKey = "access-token"
	probeKey = "vpn-tray-probe"
)

// Argon2id parameters for the local fallback key.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	keyLen       = 32
	saltLen      = 16
)

// Store keeps secrets in the system keyring, or in an encrypted file in the
// config directory when no keyring service is reachable.
type Store struct {
	mu       sync.Mutex
	log      common.Logger
	useLocal bool
	file     string
	local    map[string]string
	loaded   bool
}

// New probes the system keyring. dir is where the fallback file lives.
func New(dir string, log common.Logger) *Store {
	if log == nil {
		log = common.NopLogger{}
	}
	s := &Store{
		log:  log,
		file: filepath.Join(dir, common.CredentialsFileName),
	}

	if err := keyring.Set(serviceName, probeKey, "probe"); err != nil {
		log.Warn("system keyring unavailable, using encrypted file: %v", err)
		s.useLocal = true
	} else {
		_ = keyring.Delete(serviceName, probeKey)
	}
	return s
}

// UsesLocalFile reports whether the encrypted file backend is active.
func (s *Store) UsesLocalFile() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.useLocal
}

// Set saves a secret.
func (s *Store) Set(key, value string) error {
	if key == "" {
		return errors.New("credential key cannot be empty")
	}
	if value == "" {
		return errors.New("credential value cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.useLocal {
		err := keyring.Set(serviceName, key, value)
		if err == nil {
			return nil
		}
		s.log.Warn("keyring write failed, falling back to encrypted file: %v", err)
		s.useLocal = true
	}

	if err := s.loadLocked(); err != nil {
		return err
	}
	s.local[key] = value
	return s.saveLocked()
}

// Get retrieves a secret.
func (s *Store) Get(key string) (string, error) {
	if key == "" {
		return "", errors.New("credential key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.useLocal {
		value, err := keyring.Get(serviceName, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, keyring.ErrNotFound) {
			s.log.Debug("keyring read failed: %v", err)
		}
	}

	if err := s.loadLocked(); err != nil {
		return "", err
	}
	if value, ok := s.local[key]; ok {
		return value, nil
	}
	return "", common.ErrCredentialsNotFound
}

// Delete removes a secret from both backends.
func (s *Store) Delete(key string) error {
	if key == "" {
		return errors.New("credential key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.useLocal {
		if err := keyring.Delete(serviceName, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			s.log.Debug("keyring delete failed: %v", err)
		}
	}

	if err := s.loadLocked(); err != nil {
		return err
	}
	if _, ok := s.local[key]; !ok {
		return nil
	}
	delete(s.local, key)
	return s.saveLocked()
}

// SetToken stores the VPN account token used by the login action.
func (s *Store) SetToken(token string) error {
	return s.Set(tokenKey, strings.TrimSpace(token))
}

// Token returns the stored account token.
func (s *Store) Token() (string, error) {
	return s.Get(tokenKey)
}

// ClearToken removes the account token.
func (s *Store) ClearToken() error {
	return s.Delete(tokenKey)
}

// HasToken reports whether a token is stored.
func (s *Store) HasToken() bool {
	_, err := s.Token()
	return err == nil
}

// Lookup resolves action argument placeholders backed by stored secrets.
func (s *Store) Lookup(name string) (string, bool) {
	if name != action.PlaceholderToken {
		return "", false
	}
	token, err := s.Token()
	if err != nil {
		return "", false
	}
	return token, true
}

// loadLocked reads the fallback file once. Caller holds s.mu.
func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	s.local = make(map[string]string)

	data, err := os.ReadFile(s.file)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}

	plain, err := decrypt(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plain, &s.local); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	s.loaded = true
	return nil
}

func (s *Store) saveLocked() error {
	data, err := json.Marshal(s.local)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}

	encrypted, err := encrypt(data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.file), 0700); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	if err := os.WriteFile(s.file, encrypted, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	return nil
}

// machineSecret ties the fallback key to this user on this machine.
func machineSecret() []byte {
	hostname, _ := os.Hostname()
	machineID := "default-machine-id"
	if data, err := os.ReadFile("/etc/machine-id"); err == nil {
		machineID = strings.TrimSpace(string(data))
	}
	return []byte(fmt.Sprintf("%s-%s-%s-%d", serviceName, hostname, machineID, os.Getuid()))
}

func deriveKey(salt []byte) []byte {
	return argon2.IDKey(machineSecret(), salt, argonTime, argonMemory, argonThreads, keyLen)
}

// encrypt returns base64(salt | nonce | ciphertext).
func encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}

	gcm, err := newGCM(deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}

	out := append(salt, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(out)), nil
}

func decrypt(data []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	if len(raw) < saltLen {
		return nil, fmt.Errorf("%w: data too short", common.ErrDecryption)
	}

	salt, rest := raw[:saltLen], raw[saltLen:]
	gcm, err := newGCM(deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	if len(rest) < gcm.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", common.ErrDecryption)
	}

	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
