// Copyright 2025 Mongobox Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package credentials

import (
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies the keychain/credential store namespace.
const ServiceName = "mongobox"

// KeyringStore is a Store backed by the OS keychain (macOS Keychain, Windows
// Credential Manager, Secret Service, or pass). Values are stored as UTF-8
// strings keyed by the credential identifier.
type KeyringStore struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

var _ Store = &KeyringStore{}

// OpenKeyringStore opens the OS keyring under the mongobox service name.
func OpenKeyringStore() (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		PassPrefix:  ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open OS keyring: %w", err)
	}
	return &KeyringStore{ring: ring}, nil
}

func (s *KeyringStore) Get(id string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, err := s.ring.Get(id)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(item.Data) == 0 {
		return nil, nil
	}
	return string(item.Data), nil
}

// Set stores a credential value, so operators can seed the keychain with
// `mongobox credentials set`.
func (s *KeyringStore) Set(id, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ring.Set(keyring.Item{Key: id, Data: []byte(value)})
}

// Delete removes a credential value.
func (s *KeyringStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ring.Remove(id)
}
