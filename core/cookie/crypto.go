package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// derivedKeyLength is the number of hex characters of the alias digest used as key.
const derivedKeyLength = 16

var errShortCiphertext = errors.New("ciphertext shorter than nonce")

// Encrypter is the symmetric encryption primitive used for encrypted cookies.
// Decrypt must fail on malformed ciphertext or ciphertext produced with another key.
type Encrypter interface {
	Encrypt(key, plaintext string) (string, error)
	Decrypt(key, ciphertext string) (string, error)
}

// DeriveKey returns the per-alias encryption key: the first 16 characters of the
// hexadecimal SHA-256 digest of the alias.
func DeriveKey(alias string) string {
	sum := sha256.Sum256([]byte(alias))
	return hex.EncodeToString(sum[:])[:derivedKeyLength]
}

// Cipher names accepted by NewEncrypter and COOKIE_CIPHER.
const (
	CipherAESGCM            = "aes-gcm"
	CipherXChaCha20Poly1305 = "xchacha20-poly1305"
)

// hkdfInfo binds stretched keys to cookie value encryption.
var hkdfInfo = []byte("cookiejar.value.v1")

// NewEncrypter returns the Encrypter for a cipher name. An empty name selects AES-GCM.
func NewEncrypter(name string) (Encrypter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CipherAESGCM:
		return AESEncrypter{}, nil
	case CipherXChaCha20Poly1305, "xchacha20poly1305":
		return XChaChaEncrypter{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown cipher %q", ErrConfiguration, name)
	}
}

// AESEncrypter encrypts with AES-GCM. The key length selects AES-128, AES-192 or
// AES-256, so derived 16-character keys use AES-128. Output is URL-safe base64
// of nonce followed by the sealed payload.
type AESEncrypter struct{}

// Encrypt seals plaintext under key with a random nonce.
func (AESEncrypter) Encrypt(key, plaintext string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens a value produced by Encrypt with the same key.
func (AESEncrypter) Decrypt(key, encrypted string) (string, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return "", errShortCiphertext
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func newGCM(key string) (cipher.AEAD, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// XChaChaEncrypter encrypts with XChaCha20-Poly1305. The key is stretched to
// 32 bytes with HKDF-SHA256, so the 16-character derived keys can be used as is.
// Output is URL-safe base64 of nonce followed by the sealed payload.
type XChaChaEncrypter struct{}

// Encrypt seals plaintext under key with a random 24-byte nonce.
func (XChaChaEncrypter) Encrypt(key, plaintext string) (string, error) {
	aead, err := newXChaCha(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens a value produced by Encrypt with the same key.
func (XChaChaEncrypter) Decrypt(key, encrypted string) (string, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", err
	}

	aead, err := newXChaCha(key)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < aead.NonceSize() {
		return "", errShortCiphertext
	}

	nonce, ciphertext := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func newXChaCha(key string) (cipher.AEAD, error) {
	if key == "" {
		return nil, errors.New("empty encryption key")
	}
	stretched := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(key), nil, hkdfInfo), stretched); err != nil {
		return nil, err
	}
	return chacha20poly1305.NewX(stretched)
}
