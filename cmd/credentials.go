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

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mongobox/mongobox/internal/credentials"
)

// newCredentialsCmd manages connection URIs stored in the OS keychain, for
// sources configured with useKeyring.
func newCredentialsCmd(root *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage connection credentials stored in the OS keychain",
	}
	cmd.AddCommand(newCredentialsSetCmd(root), newCredentialsDeleteCmd(root))
	return cmd
}

func newCredentialsSetCmd(root *Command) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <uri>",
		Short: "Store a connection URI under the given credential id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := credentials.OpenKeyringStore()
			if err != nil {
				return err
			}
			if err := store.Set(args[0], args[1]); err != nil {
				return fmt.Errorf("unable to store credential %q: %w", args[0], err)
			}
			fmt.Fprintf(root.outStream, "Stored credential %q.\n", args[0])
			return nil
		},
	}
}

func newCredentialsDeleteCmd(root *Command) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a stored connection URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := credentials.OpenKeyringStore()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return fmt.Errorf("unable to delete credential %q: %w", args[0], err)
			}
			fmt.Fprintf(root.outStream, "Deleted credential %q.\n", args[0])
			return nil
		},
	}
}
