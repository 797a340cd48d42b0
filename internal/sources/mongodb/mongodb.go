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

package mongodb

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-yaml"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/otel/trace"

	"github.com/mongobox/mongobox/internal/credentials"
	"github.com/mongobox/mongobox/internal/sources"
	"github.com/mongobox/mongobox/internal/util"
)

const SourceKind string = "mongodb"

// defaults for credential resolution, matching the hosted credential spec.
const (
	defaultCredentialID = "mongodb"
	defaultURIEnvVar    = "MONGODB_URI"
)

// validate interface
var _ sources.SourceConfig = Config{}

func init() {
	if !sources.Register(SourceKind, newConfig) {
		panic(fmt.Sprintf("source kind %q already registered", SourceKind))
	}
}

func newConfig(ctx context.Context, name string, decoder *yaml.Decoder) (sources.SourceConfig, error) {
	actual := Config{Name: name}
	if err := decoder.DecodeContext(ctx, &actual); err != nil {
		return nil, err
	}
	return actual, nil
}

type Config struct {
	Name string `yaml:"name" validate:"required"`
	Kind string `yaml:"kind" validate:"required"`
	// Uri is a literal connection URI. When empty, the URI is resolved at
	// first use from the credential store or the environment.
	Uri string `yaml:"uri"`
	// Credential is the credential store identifier the URI is stored under.
	Credential string `yaml:"credential"`
	// UriEnv is the environment variable consulted when no store is present.
	UriEnv string `yaml:"uriEnv"`
	// UseKeyring resolves the credential through the OS keychain.
	UseKeyring bool `yaml:"useKeyring"`
}

func (r Config) SourceConfigKind() string {
	return SourceKind
}

// Initialize prepares the source without connecting. The client is created
// lazily on first use so a missing credential surfaces per invocation, not as
// a startup failure.
func (r Config) Initialize(ctx context.Context, tracer trace.Tracer) (sources.Source, error) {
	var store credentials.Store
	if r.UseKeyring {
		ks, err := credentials.OpenKeyringStore()
		if err != nil {
			return nil, fmt.Errorf("unable to open credential store: %w", err)
		}
		store = ks
	}

	credentialID := r.Credential
	if credentialID == "" {
		credentialID = defaultCredentialID
	}
	uriEnv := r.UriEnv
	if uriEnv == "" {
		uriEnv = defaultURIEnvVar
	}

	// AppName identifies this server in the MongoDB connection metadata.
	userAgent, err := util.UserAgentFromContext(ctx)
	if err != nil {
		userAgent = "mongobox"
	}

	s := &Source{
		Name:         r.Name,
		Kind:         SourceKind,
		uri:          r.Uri,
		credentialID: credentialID,
		resolver:     credentials.Resolver{Store: store, EnvVar: uriEnv},
		tracer:       tracer,
		userAgent:    userAgent,
	}
	return s, nil
}

var _ sources.Source = &Source{}

// Source holds the connection state for one MongoDB deployment. The client is
// a single cached handle shared by every tool bound to this source; the
// driver's own pool makes it safe for concurrent use. Initialization is
// mutex-guarded so concurrent first calls construct exactly one client.
type Source struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	uri          string
	credentialID string
	resolver     credentials.Resolver
	tracer       trace.Tracer
	userAgent    string

	mu     sync.Mutex
	client *mongo.Client
}

func (s *Source) SourceKind() string {
	return SourceKind
}

// SetCredentialStore injects an external credential store, replacing
// environment lookup. Must be called before the first Client call.
func (s *Source) SetCredentialStore(store credentials.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver.Store = store
}

// Client returns the cached client handle, creating it on first use. The
// handle lives for the rest of the process; there is no eviction and no
// explicit close.
func (s *Source) Client(ctx context.Context) (*mongo.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	uri := s.uri
	if uri == "" {
		var err error
		uri, err = s.resolver.ResolveURI(s.credentialID)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve connection URI for source %q: %w", s.Name, err)
		}
	}

	_, span := sources.InitConnectionSpan(ctx, s.tracer, SourceKind, s.Name)
	defer span.End()

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetAppName(s.userAgent))
	if err != nil {
		return nil, fmt.Errorf("unable to create MongoDB client: %w", err)
	}

	s.client = client
	return s.client, nil
}
