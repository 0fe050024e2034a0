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

package controllers

import (
	"net/http"

	"github.com/l3montree-dev/policyhub/shared"
)

type HealthController struct {
	db shared.DB
}

func NewHealthController(db shared.DB) *HealthController {
	return &HealthController{db: db}
}

func (c *HealthController) Health(ctx shared.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
	if err := sqlDB.Ping(); err != nil {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
