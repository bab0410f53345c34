package handlers

import (
	"crypto/subtle"
	"log"

	"github.com/heraldhq/herald/app/dto"
	"github.com/heraldhq/herald/app/middleware"
	businessflow "github.com/heraldhq/herald/business_flow"
	"github.com/heraldhq/herald/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// AutomationHandlerInterface defines the contract for automation handlers
type AutomationHandlerInterface interface {
	RunAutomation(c fiber.Ctx) error
}

// AutomationHandler exposes the campaign automation runner to external cron
// schedulers. Access is guarded by a shared secret header, not by user auth.
type AutomationHandler struct {
	automationFlow businessflow.AutomationFlow
	cronSecret     string
}

// NewAutomationHandler creates a new automation handler
func NewAutomationHandler(automationFlow businessflow.AutomationFlow, cronSecret string) *AutomationHandler {
	return &AutomationHandler{
		automationFlow: automationFlow,
		cronSecret:     cronSecret,
	}
}

// RunAutomation triggers one automation run. Returns 503 when no cron secret
// is configured and 401 when the caller's secret does not match.
// @Summary Run Campaign Automation
// @Description Process due scheduled campaigns; intended for external cron schedulers
// @Tags Automation
// @Accept json
// @Produce json
// @Param X-Cron-Secret header string true "Shared automation secret"
// @Param organization_id query string false "Narrow the run to one organization"
// @Success 200 {object} dto.APIResponse{data=dto.RunAutomationResponse} "Automation run completed"
// @Failure 401 {object} dto.APIResponse "Invalid cron secret"
// @Failure 503 {object} dto.APIResponse "Automation endpoint is not configured"
// @Router /api/v1/campaigns/run-automation [post]
func (h *AutomationHandler) RunAutomation(c fiber.Ctx) error {
	if h.cronSecret == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.APIResponse{
			Success: false,
			Message: "Automation endpoint is not configured",
			Error: dto.ErrorDetail{
				Code: "AUTOMATION_NOT_CONFIGURED",
			},
		})
	}

	provided := c.Get("X-Cron-Secret")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.cronSecret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Invalid cron secret",
			Error: dto.ErrorDetail{
				Code: "INVALID_CRON_SECRET",
			},
		})
	}

	var organizationID *uuid.UUID
	if raw := c.Query("organization_id"); raw != "" {
		parsed, err := utils.ParseUUID(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
				Success: false,
				Message: "Organization ID is invalid",
				Error: dto.ErrorDetail{
					Code: "INVALID_ORGANIZATION_ID",
				},
			})
		}
		organizationID = &parsed
	}

	result, err := h.automationFlow.Run(c.Context(), organizationID)
	if err != nil {
		middleware.AutomationRunsTotal.WithLabelValues("error").Inc()
		log.Println("Automation run failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Automation run failed",
			Error: dto.ErrorDetail{
				Code: "AUTOMATION_RUN_FAILED",
			},
		})
	}

	middleware.AutomationRunsTotal.WithLabelValues("ok").Inc()
	for _, campaign := range result.Campaigns {
		switch {
		case campaign.Error != "":
			middleware.AutomationCampaignsProcessed.WithLabelValues("failed").Inc()
		case campaign.Skipped:
			middleware.AutomationCampaignsProcessed.WithLabelValues("skipped").Inc()
		default:
			middleware.AutomationCampaignsProcessed.WithLabelValues("processed").Inc()
		}
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
		Success: true,
		Message: "Automation run completed",
		Data:    result,
	})
}
