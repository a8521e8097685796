package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "azdo-prtree"
	keyringAccount = "pat"

	// PATEnvVar is consulted when the keyring holds no PAT.
	PATEnvVar = "AZDO_PAT"
)

// ErrNotFound is returned when neither the keyring nor PATEnvVar holds a PAT.
var ErrNotFound = errors.New("PAT not found in keyring")

// CredentialProvider supplies and stores the Personal Access Token.
type CredentialProvider interface {
	GetPAT() (string, error)
	SetPAT(token string) error
	DeletePAT() error
}

// PATSource tells where a PAT was found.
type PATSource int

const (
	SourceNone PATSource = iota
	SourceKeyring
	SourceEnv
)

func (s PATSource) String() string {
	switch s {
	case SourceKeyring:
		return "keyring"
	case SourceEnv:
		return PATEnvVar
	default:
		return "none"
	}
}

// secretStore is the subset of go-keyring used here; tests swap it out.
type secretStore interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	Delete(service, user string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, user string) (string, error) {
	secret, err := keyring.Get(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return secret, err
}

func (osKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

func (osKeyring) Delete(service, user string) error {
	err := keyring.Delete(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// KeyringStore keeps the PAT in the OS keyring with an environment fallback.
type KeyringStore struct {
	provider secretStore
	getenv   func(string) string
}

var _ CredentialProvider = (*KeyringStore)(nil)

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{provider: osKeyring{}, getenv: os.Getenv}
}

// Lookup returns the PAT and where it came from. The keyring wins over
// PATEnvVar. An unreachable keyring falls through to the environment, and its
// error is only returned when the environment is empty too.
func (k *KeyringStore) Lookup() (string, PATSource, error) {
	token, keyringErr := k.provider.Get(keyringService, keyringAccount)
	if keyringErr == nil && token != "" {
		return token, SourceKeyring, nil
	}

	if k.getenv != nil {
		if token := k.getenv(PATEnvVar); token != "" {
			return token, SourceEnv, nil
		}
	}

	if keyringErr != nil && !errors.Is(keyringErr, ErrNotFound) {
		return "", SourceNone, fmt.Errorf("failed to retrieve PAT from keyring: %w", keyringErr)
	}
	return "", SourceNone, ErrNotFound
}

// GetPAT returns the PAT from Lookup.
func (k *KeyringStore) GetPAT() (string, error) {
	token, _, err := k.Lookup()
	return token, err
}

// SetPAT stores token in the keyring.
func (k *KeyringStore) SetPAT(token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := k.provider.Set(keyringService, keyringAccount, token); err != nil {
		return fmt.Errorf("failed to store PAT in keyring: %w", err)
	}
	return nil
}

// DeletePAT removes the stored PAT. Removing a missing PAT is not an error.
func (k *KeyringStore) DeletePAT() error {
	if err := k.provider.Delete(keyringService, keyringAccount); err != nil {
		return fmt.Errorf("failed to delete PAT from keyring: %w", err)
	}
	return nil
}
