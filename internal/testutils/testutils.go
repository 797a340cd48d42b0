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

package testutils

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mongobox/mongobox/internal/log"
	"github.com/mongobox/mongobox/internal/util"
)

// ContextWithNewLogger returns a context with a default logger attached.
func ContextWithNewLogger() (context.Context, error) {
	ctx := context.Background()
	logger, err := log.NewStdLogger(os.Stdout, os.Stderr, "info")
	if err != nil {
		return nil, fmt.Errorf("unable to initialize logger: %w", err)
	}
	return util.WithLogger(ctx, logger), nil
}

// FormatYaml allows yaml literals in test sources to be indented with tabs by
// converting each tab into four spaces.
func FormatYaml(in string) []byte {
	in = strings.ReplaceAll(in, "\t", "    ")
	return []byte(in)
}
