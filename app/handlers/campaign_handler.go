package handlers

import (
	"context"
	"log"
	"strconv"

	"github.com/heraldhq/herald/app/dto"
	"github.com/heraldhq/herald/app/middleware"
	businessflow "github.com/heraldhq/herald/business_flow"
	"github.com/heraldhq/herald/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	CreateCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	UpdateCampaign(c fiber.Ctx) error
	GetTargetRules(c fiber.Ctx) error
	UpdateTargetRules(c fiber.Ctx) error
	ListRecipients(c fiber.Ctx) error
	ExportRecipients(c fiber.Ctx) error
	GenerateRecipients(c fiber.Ctx) error
	GetAnalytics(c fiber.Ctx) error
	RecordBounce(c fiber.Ctx) error
}

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	campaignFlow  businessflow.CampaignFlow
	recipientFlow businessflow.RecipientFlow
	validator     *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFlow, recipientFlow businessflow.RecipientFlow) *CampaignHandler {
	return &CampaignHandler{
		campaignFlow:  campaignFlow,
		recipientFlow: recipientFlow,
		validator:     validator.New(),
	}
}

func (h *CampaignHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CampaignHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateCampaign handles the campaign creation process
// @Summary Create Campaign
// @Description Create a new campaign with the specified parameters
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param request body dto.CreateCampaignRequest true "Campaign creation data"
// @Success 201 {object} dto.APIResponse{data=dto.CampaignDTO} "Campaign created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	auth, err := h.authContext(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, flowErr := h.campaignFlow.CreateCampaign(h.createRequestContext(c, "/api/v1/campaigns"), &req, auth)
	if flowErr != nil {
		return h.campaignError(c, flowErr, "Campaign creation failed", "CAMPAIGN_CREATION_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Campaign created successfully", result)
}

// ListCampaigns returns a page of the caller's campaigns
// @Summary List Campaigns
// @Description List the organization's campaigns with pagination and optional status filter
// @Tags Campaigns
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Param status query string false "Filter by status" Enums(draft, scheduled, sending, sent, paused)
// @Success 200 {object} dto.APIResponse{data=dto.ListCampaignsResponse} "Campaigns retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	req := dto.ListCampaignsRequest{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	auth, err := h.authContext(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, flowErr := h.campaignFlow.ListCampaigns(h.createRequestContext(c, "/api/v1/campaigns"), &req, auth)
	if flowErr != nil {
		return h.campaignError(c, flowErr, "Campaign listing failed", "CAMPAIGN_LIST_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaigns retrieved successfully", result)
}

// GetCampaign returns one campaign, optionally with its recipient count
// @Summary Get Campaign
// @Description Retrieve a single campaign, optionally including a live recipient count
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Param include_recipient_count query bool false "Include the live recipient count"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignDTO} "Campaign retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid campaign ID"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c fiber.Ctx) error {
	campaignID, err := h.campaignIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign ID is invalid", "INVALID_CAMPAIGN_ID", nil)
	}

	auth, err := h.authContext(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	includeCount := c.Query("include_recipient_count") == "true"

	result, flowErr := h.campaignFlow.GetCampaign(h.createRequestContext(c, "/api/v1/campaigns/:id"), campaignID, includeCount, auth)
	if flowErr != nil {
		return h.campaignError(c, flowErr, "Campaign retrieval failed", "CAMPAIGN_FETCH_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign retrieved successfully", result)
}

// UpdateCampaign applies a partial update to a campaign
// @Summary Update Campaign
// @Description Apply a partial update (name, status, schedule time) to an editable campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param request body dto.UpdateCampaignRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignDTO} "Campaign updated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign not editable or transition not allowed"
// @Router /api/v1/campaigns/{id} [patch]
func (h *CampaignHandler) UpdateCampaign(c fiber.Ctx) error {
	campaignID, err := h.campaignIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign ID is invalid", "INVALID_CAMPAIGN_ID", nil)
	}

	var req dto.UpdateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	auth, err := h.authContext(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, flowErr := h.campaignFlow.UpdateCampaign(h.createRequestContext(c, "/api/v1/campaigns/:id"), campaignID, &req, auth)
	if flowErr != nil {
		return h.campaignError(c, flowErr, "Campaign update failed", "CAMPAIGN_UPDATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign updated successfully", result)
}

// GetTargetRules returns the campaign's targeting rules
// @Summary Get Target Rules
// @Description Retrieve the campaign's targeting rules, creating the default rule set if none exists
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} dto.APIResponse{data=dto.TargetRuleDTO} "Target rules retrieved successfully"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/campaigns/{id}/target-rules [get]
func (h *CampaignHandler) GetTargetRules(c fiber.Ctx) error {
	campaignID, err := h.campaignIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign ID is invalid", "INVALID_CAMPAIGN_ID", nil)
	}

	auth, err := h.authContext(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, flowErr := h.campaignFlow.GetTargetRules(h.createRequestContext(c, "/api/v1/campaigns/:id/target-rules"), campaignID, auth)
	if flowErr != nil {
		return h.campaignError(c, flowErr, "Target rules retrieval failed", "TARGET_RULES_FETCH_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Target rules retrieved successfully", result)
}

// UpdateTargetRules replaces the campaign's targeting rules
// @Summary Update Target Rules
// @Description Replace the campaign's targeting rules; only allowed while the campaign is editable
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param request body dto.UpdateTargetRuleRequest true "Replacement rule set"
// @Success 200 {object} dto.APIResponse{data=dto.TargetRuleDTO} "Target rules updated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign not editable"
// @Router /api/v1/campaigns/{id}/target-rules [put]
func (h *CampaignHandler) UpdateTargetRules(c fiber.Ctx) error {
	campaignID, err := h.campaignIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign ID is invalid", "INVALID_CAMPAIGN_ID", nil)
	}

	var req dto.UpdateTargetRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	auth, err := h.authContext(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, flowErr := h.campaignFlow.UpdateTargetRules(h.createRequestContext(c, "/api/v1/campaigns/:id/target-rules"), campaignID, &req, auth)
	if flowErr != nil {
		return h.campaignError(c, flowErr, "Target rules update failed", "TARGET_RULES_UPDATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Target rules updated successfully", result)
}

// ListRecipients returns a page of the campaign's recipients
// @Summary List Recipients
// @Description List the campaign's recipients with pagination and optional status filter
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 50, max 100)"
// @Param status query string false "Filter by delivery status" Enums(pending, sent, delivered, bounced, opened, clicked)
// @Success 200 {object} dto.APIResponse{data=dto.ListRecipientsResponse} "Recipients retrieved successfully"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/campaigns/{id}/recipients [get]
func (h *CampaignHandler) ListRecipients(c fiber.Ctx) error {
	campaignID, err := h.campaignIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign ID is invalid", "INVALID_CAMPAIGN_ID", nil)
	}

	req := dto.ListRecipientsRequest{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 50),
	}
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	auth, err := h.authContext(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, flowErr := h.campaignFlow.ListRecipients(h.createRequestContext(c, "/api/v1/campaigns/:id/recipients"), campaignID, &req, auth)
	if flowErr != nil {
		return h.campaignError(c, flowErr, "Recipient listing failed", "RECIPIENT_LIST_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Recipients retrieved successfully", result)
}

// ExportRecipients streams the campaign's recipients as an xlsx workbook
// @Summary Export Recipients
// @Description Download the campaign's recipients as an xlsx workbook
// @Tags Campaigns
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Campaign ID"
// @Success 200 {file} binary "Recipient workbook"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/campaigns/{id}/recipients/export [get]
func (h *CampaignHandler) ExportRecipients(c fiber.Ctx) error {
	campaignID, err := h.campaignIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign ID is invalid", "INVALID_CAMPAIGN_ID", nil)
	}

	auth, err := h.authContext(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	content, filename, flowErr := h.campaignFlow.ExportRecipients(h.createRequestContext(c, "/api/v1/campaigns/:id/recipients/export"), campaignID, auth)
	if flowErr != nil {
		return h.campaignError(c, flowErr, "Recipient export failed", "RECIPIENT_EXPORT_FAILED")
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(content)
}

// GenerateRecipients materializes the campaign's eligible audience
// @Summary Generate Recipients
// @Description Run one recipient generation pass for the campaign; contacts already targeted are skipped
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} dto.APIResponse{data=dto.GenerateRecipientsResponse} "Recipients generated successfully"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{id}/recipients [post]
func (h *CampaignHandler) GenerateRecipients(c fiber.Ctx) error {
	campaignID, err := h.campaignIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign ID is invalid", "INVALID_CAMPAIGN_ID", nil)
	}

	auth, err := h.authContext(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, flowErr := h.recipientFlow.GenerateRecipients(h.createRequestContext(c, "/api/v1/campaigns/:id/recipients"), campaignID, auth)
	if flowErr != nil {
		return h.campaignError(c, flowErr, "Recipient generation failed", "RECIPIENT_GENERATION_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Recipients generated successfully", result)
}

// GetAnalytics returns aggregate delivery metrics for a campaign
// @Summary Campaign Analytics
// @Description Retrieve aggregate delivery metrics and rates for the campaign
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignAnalyticsDTO} "Analytics retrieved successfully"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/campaigns/{id}/analytics [get]
func (h *CampaignHandler) GetAnalytics(c fiber.Ctx) error {
	campaignID, err := h.campaignIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign ID is invalid", "INVALID_CAMPAIGN_ID", nil)
	}

	auth, err := h.authContext(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, flowErr := h.campaignFlow.GetAnalytics(h.createRequestContext(c, "/api/v1/campaigns/:id/analytics"), campaignID, auth)
	if flowErr != nil {
		return h.campaignError(c, flowErr, "Analytics retrieval failed", "ANALYTICS_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Analytics retrieved successfully", result)
}

// RecordBounce records a bounce notification for a contact
// @Summary Record Bounce
// @Description Flag campaign recipients as bounced; intended for delivery-provider webhooks
// @Tags Internal
// @Accept json
// @Produce json
// @Param request body dto.RecordBounceRequest true "Bounce notification"
// @Success 200 {object} dto.APIResponse{data=dto.RecordBounceResponse} "Bounce recorded successfully"
// @Failure 404 {object} dto.APIResponse "Campaign, contact or recipient not found"
// @Router /api/v1/internal/recipients/bounce [post]
func (h *CampaignHandler) RecordBounce(c fiber.Ctx) error {
	var req dto.RecordBounceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	result, flowErr := h.recipientFlow.RecordBounce(h.createRequestContext(c, "/api/v1/internal/recipients/bounce"), &req)
	if flowErr != nil {
		switch {
		case businessflow.IsCampaignNotFound(flowErr):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		case businessflow.IsContactNotFound(flowErr):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", "CONTACT_NOT_FOUND", nil)
		case businessflow.IsRecipientNotFound(flowErr):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Recipient not found", "RECIPIENT_NOT_FOUND", nil)
		}
		log.Println("Bounce recording failed", flowErr)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Bounce recording failed", "BOUNCE_RECORD_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Bounce recorded successfully", result)
}

// campaignError maps business errors to HTTP responses
func (h *CampaignHandler) campaignError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	switch {
	case businessflow.IsCampaignNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
	case businessflow.IsCampaignNameRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign name is required", "CAMPAIGN_NAME_REQUIRED", nil)
	case businessflow.IsCampaignUpdateNotAllowed(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Campaign cannot be updated in current status", "CAMPAIGN_UPDATE_NOT_ALLOWED", nil)
	case businessflow.IsInvalidCampaignStatus(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign status", "INVALID_CAMPAIGN_STATUS", nil)
	case businessflow.IsInvalidStatusTransition(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Invalid campaign status transition", "INVALID_STATUS_TRANSITION", nil)
	case businessflow.IsScheduleTimeRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule time is required", "SCHEDULE_TIME_REQUIRED", nil)
	case businessflow.IsScheduleTimeInPast(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule time must be in the future", "SCHEDULE_TIME_IN_PAST", nil)
	case businessflow.IsScheduleTimeInvalid(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule time is invalid", "SCHEDULE_TIME_INVALID", nil)
	case businessflow.IsInvalidPage(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Page must be at least 1", "INVALID_PAGE", nil)
	case businessflow.IsInvalidPageSize(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Page size must be between 1 and 100", "INVALID_PAGE_SIZE", nil)
	}

	log.Println(fallbackMessage, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}

// authContext builds the flow auth context from the authenticated request
func (h *CampaignHandler) authContext(c fiber.Ctx) (*businessflow.AuthContext, error) {
	organizationID, ok := middleware.GetOrganizationIDFromContext(c)
	if !ok {
		return nil, businessflow.ErrOrganizationIDRequired
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return nil, businessflow.ErrOrganizationIDRequired
	}

	return &businessflow.AuthContext{
		OrganizationID: organizationID,
		UserID:         userID,
	}, nil
}

// campaignIDParam parses the campaign ID path parameter
func (h *CampaignHandler) campaignIDParam(c fiber.Ctx) (uuid.UUID, error) {
	return utils.ParseUUID(c.Params("id"))
}

// createRequestContext creates a context with timeout and request-scoped values
func (h *CampaignHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx := context.WithValue(c.Context(), utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	return ctx
}

func queryInt(c fiber.Ctx, key string, defaultValue int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}
