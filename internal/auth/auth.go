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

package auth

import (
	"context"
	"net/http"
)

// AuthServiceConfig is the interface for configuring an auth service.
type AuthServiceConfig interface {
	AuthServiceConfigKind() string
	Initialize() (AuthService, error)
}

// AuthService is the interface for an auth service that verifies request
// headers into claims.
type AuthService interface {
	GetName() string
	GetKind() string
	// GetClaimsFromHeader returns the claims of the verified token found in
	// the request headers, or nil when the expected header is absent.
	GetClaimsFromHeader(ctx context.Context, h http.Header) (map[string]any, error)
}
