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
	"github.com/l3montree-dev/policyhub/dtos"
	"github.com/l3montree-dev/policyhub/shared"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type SyncController struct {
	tracker          shared.SyncTracker
	policyRepository shared.PolicyRepository
	broker           shared.PubSubBroker
}

func NewSyncController(tracker shared.SyncTracker, policyRepository shared.PolicyRepository, broker shared.PubSubBroker) *SyncController {
	return &SyncController{
		tracker:          tracker,
		policyRepository: policyRepository,
		broker:           broker,
	}
}

// SyncStatus reports the tracker's view of one configuration's sweep. An
// unknown configuration reports a zero state, never an error.
func (c *SyncController) SyncStatus(ctx shared.Context) error {
	configurationID, err := uuid.Parse(ctx.Param("configurationID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid configuration id")
	}

	status, err := c.tracker.Status(configurationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).WithInternal(err)
	}
	return ctx.JSON(http.StatusOK, status)
}

type resyncRequest struct {
	Trigger string `json:"trigger" validate:"omitempty,oneof=api ui cli"`
	Reason  string `json:"reason" validate:"omitempty,max=500"`
}

// TriggerResync publishes a resync lifecycle event for the policy. The sweep
// itself runs asynchronously - the response only acknowledges the request.
func (c *SyncController) TriggerResync(ctx shared.Context) error {
	policyID, err := uuid.Parse(ctx.Param("policyID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid policy id")
	}

	var req resyncRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := shared.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Trigger == "" {
		req.Trigger = "api"
	}

	policy, err := c.policyRepository.Read(policyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "policy not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).WithInternal(err)
	}

	event := dtos.PolicyLifecycleEvent{
		Kind:     dtos.PolicyEventResync,
		PolicyID: policy.ID,
		Event: &dtos.SourceEvent{
			EventType: dtos.SourceEventPolicyResync,
			Data:      map[string]any{"trigger": req.Trigger, "reason": req.Reason},
		},
	}
	if err := c.broker.Publish(ctx.Request().Context(), shared.NewSimplePubSubMessage(shared.PolicyLifecycle, event.ToMap())); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).WithInternal(err)
	}

	return ctx.NoContent(http.StatusAccepted)
}
