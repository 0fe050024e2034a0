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

package policysync

import (
	"github.com/l3montree-dev/policyhub/shared"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(ConfigFromEnv),
	fx.Provide(fx.Annotate(NewScopeResolver, fx.As(new(shared.ScopeResolver)))),
	fx.Provide(fx.Annotate(NewSyncTracker, fx.As(new(shared.SyncTracker)))),
	fx.Provide(fx.Annotate(NewFanoutScheduler, fx.As(new(shared.FanoutScheduler)))),
	fx.Provide(fx.Annotate(NewSourceIngester, fx.As(new(shared.SourceIngester)))),
	fx.Provide(NewDispatcher),
	fx.Provide(NewReconciler),
)
