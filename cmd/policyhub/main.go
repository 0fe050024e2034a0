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

	"github.com/getsentry/sentry-go"
	"github.com/l3montree-dev/policyhub/controllers"
	"github.com/l3montree-dev/policyhub/daemons"
	"github.com/l3montree-dev/policyhub/database"
	"github.com/l3montree-dev/policyhub/database/repositories"
	"github.com/l3montree-dev/policyhub/policysync"
	"github.com/l3montree-dev/policyhub/pubsub"
	"github.com/l3montree-dev/policyhub/router"
	"github.com/l3montree-dev/policyhub/services"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/l3montree-dev/policyhub/taskqueue"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

func main() {
	shared.InitLogger()
	if err := shared.LoadConfig(); err != nil {
		slog.Warn("could not load .env file", "err", err)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			slog.Error("could not initialize sentry", "err", err)
		}
	}

	app := fx.New(
		fx.Provide(shared.DatabaseFactory),
		fx.Provide(pubsub.BrokerFactory),
		repositories.Module,
		services.Module,
		policysync.Module,
		taskqueue.Module,
		daemons.Module,
		controllers.Module,
		fx.Provide(router.NewRouter),
		fx.Invoke(start),
	)
	app.Run()
}

func start(
	lc fx.Lifecycle,
	db shared.DB,
	e *echo.Echo,
	broker shared.PubSubBroker,
	dispatcher *policysync.Dispatcher,
	reconciler *policysync.Reconciler,
	worker *taskqueue.Worker,
	runner *daemons.DaemonRunner,
) error {
	if err := database.RunMigrationsWithDB(db); err != nil {
		return err
	}

	// the API publishes resync events on the same broker instance the
	// dispatcher subscribes on
	if pgBroker, ok := broker.(*pubsub.PostgreSQLBroker); ok {
		pgBroker.SetShouldReceiveOwnMessages(true)
	}

	reconciler.Register(worker)

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			if err := dispatcher.Listen(ctx, broker); err != nil {
				return err
			}
			worker.Start(ctx)
			runner.Start(ctx)
			go func() {
				if err := e.Start(":8080"); err != nil {
					slog.Info("http server stopped", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			worker.Stop()
			return e.Shutdown(stopCtx)
		},
	})
	return nil
}
