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

package google

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/idtoken"

	"github.com/mongobox/mongobox/internal/auth"
)

const AuthServiceKind string = "google"

// validate interface
var _ auth.AuthServiceConfig = Config{}

type Config struct {
	Name     string `yaml:"name" validate:"required"`
	Kind     string `yaml:"kind" validate:"required"`
	ClientID string `yaml:"clientId" validate:"required"`
}

func (cfg Config) AuthServiceConfigKind() string {
	return AuthServiceKind
}

func (cfg Config) Initialize() (auth.AuthService, error) {
	a := &AuthService{
		Name:     cfg.Name,
		Kind:     AuthServiceKind,
		ClientID: cfg.ClientID,
	}
	return a, nil
}

var _ auth.AuthService = &AuthService{}

// AuthService verifies Google ID tokens sent alongside a request.
type AuthService struct {
	Name     string
	Kind     string
	ClientID string
}

func (a *AuthService) GetName() string {
	return a.Name
}

func (a *AuthService) GetKind() string {
	return a.Kind
}

// GetClaimsFromHeader looks for the `<name>_token` header and validates it as
// a Google ID token against the configured OAuth client.
func (a *AuthService) GetClaimsFromHeader(ctx context.Context, h http.Header) (map[string]any, error) {
	token := h.Get(a.Name + "_token")
	if token == "" {
		return nil, nil
	}
	payload, err := idtoken.Validate(ctx, token, a.ClientID)
	if err != nil {
		return nil, fmt.Errorf("Google ID token verification failure: %w", err)
	}
	return payload.Claims, nil
}
