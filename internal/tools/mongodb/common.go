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

// Package mongodb holds the envelope and argument helpers shared by the
// mongodb tool kinds. Every tool returns a mapping holding either a success
// payload or an `error` message, never both; driver and configuration
// failures are reported inside the envelope instead of propagating to the
// host framework.
package mongodb

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/mongobox/mongobox/internal/credentials"
	"github.com/mongobox/mongobox/internal/tools"
	"github.com/mongobox/mongobox/internal/util"
)

const missingURIMessage = "MongoDB URI not configured"

const missingURIHelp = "Set MONGODB_URI environment variable or configure via " +
	"credential store. Get your URI from MongoDB Atlas dashboard."

// ErrorEnvelope returns the uniform error envelope.
func ErrorEnvelope(format string, args ...any) map[string]any {
	return map[string]any{"error": fmt.Sprintf(format, args...)}
}

// ConnectionErrorEnvelope maps a client acquisition failure to an envelope.
// A missing credential gets the guidance message; anything else carries the
// underlying error text.
func ConnectionErrorEnvelope(err error) map[string]any {
	if errors.Is(err, credentials.ErrNotConfigured) {
		return map[string]any{
			"error": missingURIMessage,
			"help":  missingURIHelp,
		}
	}
	return ErrorEnvelope("%s", err)
}

// InvalidJSONEnvelope is returned when a JSON-encoded string argument fails
// to decode. No driver call is made in that case.
func InvalidJSONEnvelope(argName string) map[string]any {
	return ErrorEnvelope("Invalid JSON format provided in %s.", argName)
}

// DecodeJSONString decodes a JSON-encoded string argument into Go values,
// with numbers widened losslessly to int64/float64.
func DecodeJSONString(raw string) (any, error) {
	var v any
	if err := util.DecodeJSON(strings.NewReader(raw), &v); err != nil {
		return nil, err
	}
	return util.ConvertNumbers(v)
}

// IDString coerces a document identifier to its string representation
// (ObjectID values render as their hex form).
func IDString(id any) string {
	switch v := id.(type) {
	case bson.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SerializeDocument coerces a returned document's `_id` field to a string so
// the envelope is plain-JSON serializable.
func SerializeDocument(doc bson.M) bson.M {
	if doc == nil {
		return doc
	}
	if id, ok := doc["_id"]; ok {
		doc["_id"] = IDString(id)
	}
	return doc
}

// SerializeDocuments applies SerializeDocument to every document.
func SerializeDocuments(docs []bson.M) []bson.M {
	for i, doc := range docs {
		docs[i] = SerializeDocument(doc)
	}
	if docs == nil {
		docs = []bson.M{}
	}
	return docs
}

// DatabaseCollectionParams returns the database/collection parameters a tool
// must expose when they are not pinned in its configuration.
func DatabaseCollectionParams(pinnedDatabase, pinnedCollection string) tools.Parameters {
	var params tools.Parameters
	if pinnedDatabase == "" {
		params = append(params, tools.NewStringParameter("database", "Target database name."))
	}
	if pinnedCollection == "" {
		params = append(params, tools.NewStringParameter("collection", "Target collection name."))
	}
	return params
}

// ResolveName returns the pinned config value when set, otherwise the string
// parameter of the given name.
func ResolveName(paramsMap map[string]any, name, pinned string) (string, error) {
	if pinned != "" {
		return pinned, nil
	}
	v, ok := paramsMap[name]
	if !ok {
		return "", fmt.Errorf("%s parameter is required", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s parameter must be a string", name)
	}
	return s, nil
}
