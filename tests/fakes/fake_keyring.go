package fakes

import (
	"github.com/zalando/go-keyring"

	"github.com/systmms/halyard/internal/keysource"
)

// FakeKeyring is a test double for keysource.KeyringAPI
type FakeKeyring struct {
	// Entries maps service names to user/value pairs
	Entries map[string]map[string]string

	// Err is returned by Get if set (overrides Entries lookup)
	Err error

	// GetCallCount tracks how many times Get was called
	GetCallCount int
}

// NewFakeKeyring creates an empty fake keyring
func NewFakeKeyring() *FakeKeyring {
	return &FakeKeyring{
		Entries: make(map[string]map[string]string),
	}
}

// SetEntry stores a value under service/user
func (f *FakeKeyring) SetEntry(service, user, value string) {
	if f.Entries == nil {
		f.Entries = make(map[string]map[string]string)
	}
	if f.Entries[service] == nil {
		f.Entries[service] = make(map[string]string)
	}
	f.Entries[service][user] = value
}

// Get retrieves a value, mirroring go-keyring's not-found behavior
func (f *FakeKeyring) Get(service, user string) (string, error) {
	f.GetCallCount++
	if f.Err != nil {
		return "", f.Err
	}

	if users, ok := f.Entries[service]; ok {
		if value, ok := users[user]; ok {
			return value, nil
		}
	}
	return "", keyring.ErrNotFound
}

// Ensure FakeKeyring implements keysource.KeyringAPI
var _ keysource.KeyringAPI = (*FakeKeyring)(nil)
