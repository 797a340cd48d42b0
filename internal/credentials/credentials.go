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

// Package credentials resolves connection strings from an injected credential
// store or from the environment. Absence is reported as ErrNotConfigured so
// callers can answer with guidance instead of failing the process.
package credentials

import (
	"errors"
	"fmt"
	"os"
)

// ErrNotConfigured is returned when no credential value could be found for
// the requested identifier.
var ErrNotConfigured = errors.New("credential not configured")

// Store is an externally supplied credential store. Get returns the stored
// value for id, or nil when the credential is absent.
type Store interface {
	Get(id string) (any, error)
}

// StaticStore is an in-memory Store, used for injection in tests and for
// host frameworks that hand credentials over directly.
type StaticStore map[string]any

func (s StaticStore) Get(id string) (any, error) {
	v, ok := s[id]
	if !ok {
		return nil, nil
	}
	return v, nil
}

// Resolver looks up a connection string by credential identifier. When a
// Store is supplied it is authoritative; otherwise the named environment
// variable is consulted.
type Resolver struct {
	// Store is the optional external credential store.
	Store Store
	// EnvVar is the environment variable consulted when no Store is set.
	EnvVar string
}

// ResolveURI returns the connection string for id. A store value of a
// non-string type is a configuration error. A missing value resolves to
// ErrNotConfigured, never to a process failure.
func (r Resolver) ResolveURI(id string) (string, error) {
	if r.Store != nil {
		v, err := r.Store.Get(id)
		if err != nil {
			return "", fmt.Errorf("unable to read credential %q from store: %w", id, err)
		}
		if v == nil {
			return "", ErrNotConfigured
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("expected string value for credential %q, got %T", id, v)
		}
		if s == "" {
			return "", ErrNotConfigured
		}
		return s, nil
	}
	if r.EnvVar != "" {
		if v := os.Getenv(r.EnvVar); v != "" {
			return v, nil
		}
	}
	return "", ErrNotConfigured
}
