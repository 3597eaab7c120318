package credstore

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

var ErrSecretNotFound = errors.New("secret not found")

// SecretStore keeps master secrets outside the local database.
type SecretStore interface {
	Put(account, secret string) error
	Get(account string) (string, error)
	Delete(account string) error
}

// None never keeps anything; restored users are asked for their master
// secret again.
type None struct{}

func (None) Put(string, string) error { return nil }

func (None) Get(string) (string, error) { return "", ErrSecretNotFound }

func (None) Delete(string) error { return nil }

// Keyring stores secrets in the OS credential store.
type Keyring struct {
	ring keyring.Keyring
}

const ServiceName = "vaultkeeper"

func OpenKeyring() (*Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		// file and pass backends would need their own password prompt
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.WinCredBackend,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return NewKeyring(ring), nil
}

func NewKeyring(ring keyring.Keyring) *Keyring {
	return &Keyring{ring: ring}
}

func (k *Keyring) Put(account, secret string) error {
	err := k.ring.Set(keyring.Item{
		Key:   account,
		Data:  []byte(secret),
		Label: "VaultKeeper master secret",
	})
	if err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

func (k *Keyring) Get(account string) (string, error) {
	item, err := k.ring.Get(account)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrSecretNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return string(item.Data), nil
}

func (k *Keyring) Delete(account string) error {
	err := k.ring.Remove(account)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("keyring remove: %w", err)
	}
	return nil
}

// Open picks a SecretStore by its configured name.
func Open(kind string) (SecretStore, error) {
	switch kind {
	case "", "none":
		return None{}, nil
	case "keyring":
		return OpenKeyring()
	default:
		return nil, fmt.Errorf("unknown secret store %q", kind)
	}
}
