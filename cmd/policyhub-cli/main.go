// Copyright (C) 2025 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/database"
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/pubsub"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/spf13/cobra"
)

func main() {
	shared.InitLogger()
	if err := shared.LoadConfig(); err != nil {
		slog.Debug("could not load .env file", "err", err)
	}

	rootCmd := &cobra.Command{
		Use:   "policyhub-cli",
		Short: "Operational tooling for the policy synchronization engine",
	}
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newResyncCommand())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run all pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := shared.DatabaseFactory()
			if err != nil {
				return err
			}
			return database.RunMigrationsWithDB(db)
		},
	}
}

func newResyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resync <policy-id>",
		Short: "Trigger a full synchronization sweep for a policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policyID, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}

			broker, err := pubsub.BrokerFactory()
			if err != nil {
				return err
			}

			event := dtos.PolicyLifecycleEvent{
				Kind:     dtos.PolicyEventResync,
				PolicyID: policyID,
				Event: &dtos.SourceEvent{
					EventType: dtos.SourceEventPolicyResync,
					Data:      map[string]any{"trigger": "cli"},
				},
			}
			if err := broker.Publish(context.Background(), shared.NewSimplePubSubMessage(shared.PolicyLifecycle, event.ToMap())); err != nil {
				return err
			}
			slog.Info("resync requested", "policyId", policyID)
			return nil
		},
	}
}
