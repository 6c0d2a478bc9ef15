package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	ivSize  = 12
	tagSize = 16
	keySize = 32
)

// contextAAD binds ciphertexts to this application. A ciphertext produced for
// any other purpose, even with the right key, fails authentication here.
var contextAAD = []byte("docvault/blob/v1")

// saltContext namespaces tenant key derivation from the master secret.
const saltContext = "docvault/tenant-key/v1:"

// ErrIntegrity is returned when decryption fails authentication. It means the
// ciphertext, IV or tag was altered, or the key (tenant identity) is wrong.
var ErrIntegrity = errors.New("vault: integrity check failed")

// Params are the argon2id cost parameters for tenant key derivation.
// Production uses Defaults; tests may lower them.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// DefaultParams follows the argon2id recommended baseline (64 MiB, 1 pass).
func DefaultParams() Params {
	return Params{Time: 1, Memory: 64 * 1024, Threads: 4}
}

// Vault performs per-tenant authenticated encryption of file contents.
//
// Keys are never stored: each operation re-derives the tenant key from the
// injected master secret and the tenant identity. Losing the tenant identity
// therefore loses the data; there is no per-file key escrow. That trade-off is
// deliberate and must be treated as an operational risk.
type Vault struct {
	masterSecret []byte
	params       Params
}

// New constructs a Vault around the server-wide master secret.
func New(masterSecret string) (*Vault, error) {
	return NewWithParams(masterSecret, DefaultParams())
}

// NewWithParams constructs a Vault with explicit KDF cost parameters.
func NewWithParams(masterSecret string, params Params) (*Vault, error) {
	if masterSecret == "" {
		return nil, errors.New("vault: master secret is required")
	}
	if params.Time == 0 || params.Memory == 0 || params.Threads == 0 {
		return nil, errors.New("vault: invalid kdf parameters")
	}
	return &Vault{
		masterSecret: []byte(masterSecret),
		params:       params,
	}, nil
}

// Encrypt seals plaintext under the tenant's derived key. The IV is random per
// call and must never be reused for the same key; the 16-byte authentication
// tag is returned separately from the ciphertext.
func (v *Vault) Encrypt(plaintext []byte, tenantID string) (ciphertext, iv, tag []byte, err error) {
	gcm, err := v.aead(tenantID)
	if err != nil {
		return nil, nil, nil, err
	}

	iv = make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, nil, fmt.Errorf("vault: generate iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, plaintext, contextAAD)
	ciphertext = sealed[:len(sealed)-tagSize]
	tag = sealed[len(sealed)-tagSize:]
	return ciphertext, iv, tag, nil
}

// Decrypt opens a ciphertext sealed by Encrypt. Any modification to the
// ciphertext, IV or tag, or a mismatched tenant, yields ErrIntegrity.
func (v *Vault) Decrypt(ciphertext, iv, tag []byte, tenantID string) ([]byte, error) {
	if len(iv) != ivSize {
		return nil, ErrIntegrity
	}
	if len(tag) != tagSize {
		return nil, ErrIntegrity
	}

	gcm, err := v.aead(tenantID)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, contextAAD)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}

func (v *Vault) aead(tenantID string) (cipher.AEAD, error) {
	if tenantID == "" {
		return nil, errors.New("vault: tenant id is required")
	}
	key := v.deriveKey(tenantID)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: new gcm: %w", err)
	}
	return gcm, nil
}

// deriveKey stretches the master secret into a per-tenant key with argon2id.
// The memory-hard KDF keeps a leaked single key from being cheaply brute-forced
// back to the master secret, and tenants never share key material.
func (v *Vault) deriveKey(tenantID string) []byte {
	salt := []byte(saltContext + tenantID)
	return argon2.IDKey(v.masterSecret, salt, v.params.Time, v.params.Memory, v.params.Threads, keySize)
}
