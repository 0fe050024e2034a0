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

	"github.com/google/uuid"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type PolicyConfigurationController struct {
	ingester shared.SourceIngester
}

func NewPolicyConfigurationController(ingester shared.SourceIngester) *PolicyConfigurationController {
	return &PolicyConfigurationController{ingester: ingester}
}

type updateSourceRequest struct {
	Source string `json:"source" validate:"required"`
}

// UpdateSource replaces a configuration's policy-as-code source. The response
// reports how many policies changed - the reconciliation sweeps themselves
// run asynchronously.
func (c *PolicyConfigurationController) UpdateSource(ctx shared.Context) error {
	configurationID, err := uuid.Parse(ctx.Param("configurationID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid configuration id")
	}

	var req updateSourceRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := shared.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	events, err := c.ingester.ApplySource(ctx.Request().Context(), configurationID, req.Source)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "configuration not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).WithInternal(err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{"changes": len(events)})
}
