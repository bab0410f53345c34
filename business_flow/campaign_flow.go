package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/heraldhq/herald/app/dto"
	"github.com/heraldhq/herald/models"
	"github.com/heraldhq/herald/repository"
	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// CampaignFlow defines campaign management operations
type CampaignFlow interface {
	CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, auth *AuthContext) (*dto.CampaignDTO, error)
	ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest, auth *AuthContext) (*dto.ListCampaignsResponse, error)
	GetCampaign(ctx context.Context, campaignID uuid.UUID, includeRecipientCount bool, auth *AuthContext) (*dto.CampaignDTO, error)
	UpdateCampaign(ctx context.Context, campaignID uuid.UUID, req *dto.UpdateCampaignRequest, auth *AuthContext) (*dto.CampaignDTO, error)
	GetTargetRules(ctx context.Context, campaignID uuid.UUID, auth *AuthContext) (*dto.TargetRuleDTO, error)
	UpdateTargetRules(ctx context.Context, campaignID uuid.UUID, req *dto.UpdateTargetRuleRequest, auth *AuthContext) (*dto.TargetRuleDTO, error)
	ListRecipients(ctx context.Context, campaignID uuid.UUID, req *dto.ListRecipientsRequest, auth *AuthContext) (*dto.ListRecipientsResponse, error)
	ExportRecipients(ctx context.Context, campaignID uuid.UUID, auth *AuthContext) ([]byte, string, error)
	GetAnalytics(ctx context.Context, campaignID uuid.UUID, auth *AuthContext) (*dto.CampaignAnalyticsDTO, error)
}

// CampaignFlowImpl implements the CampaignFlow interface
type CampaignFlowImpl struct {
	campaignRepo  repository.CampaignRepository
	targetRepo    repository.TargetRuleRepository
	recipientRepo repository.RecipientRepository
	contactRepo   repository.ContactRepository
}

// NewCampaignFlow creates a new campaign flow
func NewCampaignFlow(
	campaignRepo repository.CampaignRepository,
	targetRepo repository.TargetRuleRepository,
	recipientRepo repository.RecipientRepository,
	contactRepo repository.ContactRepository,
) CampaignFlow {
	return &CampaignFlowImpl{
		campaignRepo:  campaignRepo,
		targetRepo:    targetRepo,
		recipientRepo: recipientRepo,
		contactRepo:   contactRepo,
	}
}

// CreateCampaign creates a new campaign. A future scheduled_at promotes the
// campaign to scheduled; asking for scheduled without a valid future time is
// rejected. Campaigns are never created in sending or sent.
func (f *CampaignFlowImpl) CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, auth *AuthContext) (*dto.CampaignDTO, error) {
	if auth == nil || auth.OrganizationID == uuid.Nil {
		return nil, NewBusinessError("ORGANIZATION_ID_REQUIRED", "organization ID is required", ErrOrganizationIDRequired)
	}
	if req.Name == "" {
		return nil, NewBusinessError("CAMPAIGN_NAME_REQUIRED", "campaign name is required", ErrCampaignNameRequired)
	}

	status := models.CampaignStatusDraft
	if req.Status != nil {
		status = models.CampaignStatus(*req.Status)
		if !status.Valid() || status == models.CampaignStatusSending || status == models.CampaignStatusSent {
			return nil, NewBusinessError("INVALID_CAMPAIGN_STATUS", "invalid campaign status", ErrInvalidCampaignStatus)
		}
	}

	var scheduledAt *time.Time
	if req.ScheduledAt != nil && *req.ScheduledAt != "" {
		ts, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			return nil, NewBusinessError("SCHEDULE_TIME_INVALID", "schedule time is invalid", ErrScheduleTimeInvalid)
		}
		ts = ts.UTC()
		if !ts.After(utils.UTCNow()) {
			return nil, NewBusinessError("SCHEDULE_TIME_IN_PAST", "schedule time must be in the future", ErrScheduleTimeInPast)
		}
		scheduledAt = &ts
		status = models.CampaignStatusScheduled
	}

	if status == models.CampaignStatusScheduled && scheduledAt == nil {
		return nil, NewBusinessError("SCHEDULE_TIME_REQUIRED", "schedule time is required", ErrScheduleTimeRequired)
	}

	campaign := &models.Campaign{
		OrganizationID: auth.OrganizationID,
		Name:           req.Name,
		Status:         status,
		ScheduledAt:    scheduledAt,
		CreatedBy:      auth.UserID,
	}

	if err := f.campaignRepo.Save(ctx, campaign); err != nil {
		return nil, NewBusinessError("CAMPAIGN_CREATE_FAILED", "failed to create campaign", err)
	}

	out := ToCampaignDTO(*campaign)
	return &out, nil
}

// ListCampaigns returns a page of the organization's campaigns, newest first
func (f *CampaignFlowImpl) ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest, auth *AuthContext) (*dto.ListCampaignsResponse, error) {
	if auth == nil || auth.OrganizationID == uuid.Nil {
		return nil, NewBusinessError("ORGANIZATION_ID_REQUIRED", "organization ID is required", ErrOrganizationIDRequired)
	}

	page := req.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, NewBusinessError("INVALID_PAGE", "page must be at least 1", ErrInvalidPage)
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("INVALID_PAGE_SIZE", "page size must be between 1 and 100", ErrInvalidPageSize)
	}

	filter := models.CampaignFilter{OrganizationID: &auth.OrganizationID}
	if req.Status != nil {
		status := models.CampaignStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("INVALID_CAMPAIGN_STATUS", "invalid campaign status", ErrInvalidCampaignStatus)
		}
		filter.Status = &status
	}

	total, err := f.campaignRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "failed to count campaigns", err)
	}

	campaigns, err := f.campaignRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "failed to list campaigns", err)
	}

	items := make([]dto.CampaignDTO, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, ToCampaignDTO(*c))
	}

	return &dto.ListCampaignsResponse{
		Items: items,
		Pagination: dto.PaginationDTO{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}, nil
}

// GetCampaign retrieves one campaign scoped to the caller's organization
func (f *CampaignFlowImpl) GetCampaign(ctx context.Context, campaignID uuid.UUID, includeRecipientCount bool, auth *AuthContext) (*dto.CampaignDTO, error) {
	campaign, err := f.requireCampaign(ctx, campaignID, auth)
	if err != nil {
		return nil, err
	}

	out := ToCampaignDTO(*campaign)
	if includeRecipientCount {
		count, err := f.recipientRepo.CountByCampaign(ctx, campaign.ID)
		if err != nil {
			return nil, NewBusinessError("RECIPIENT_COUNT_FAILED", "failed to count recipients", err)
		}
		out.RecipientCount = &count
	}

	return &out, nil
}

// UpdateCampaign applies a partial update. Only draft, scheduled and paused
// campaigns can be modified; sending and sent are read-only.
func (f *CampaignFlowImpl) UpdateCampaign(ctx context.Context, campaignID uuid.UUID, req *dto.UpdateCampaignRequest, auth *AuthContext) (*dto.CampaignDTO, error) {
	campaign, err := f.requireCampaign(ctx, campaignID, auth)
	if err != nil {
		return nil, err
	}

	if !campaign.IsEditable() {
		return nil, NewBusinessError("CAMPAIGN_UPDATE_NOT_ALLOWED",
			fmt.Sprintf("campaign in status %s cannot be updated", campaign.Status), ErrCampaignUpdateNotAllowed)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, NewBusinessError("CAMPAIGN_NAME_REQUIRED", "campaign name is required", ErrCampaignNameRequired)
		}
		campaign.Name = *req.Name
	}

	if req.ScheduledAt != nil {
		if *req.ScheduledAt == "" {
			campaign.ScheduledAt = nil
		} else {
			ts, err := time.Parse(time.RFC3339, *req.ScheduledAt)
			if err != nil {
				return nil, NewBusinessError("SCHEDULE_TIME_INVALID", "schedule time is invalid", ErrScheduleTimeInvalid)
			}
			ts = ts.UTC()
			if !ts.After(utils.UTCNow()) {
				return nil, NewBusinessError("SCHEDULE_TIME_IN_PAST", "schedule time must be in the future", ErrScheduleTimeInPast)
			}
			campaign.ScheduledAt = &ts
		}
	}

	if req.Status != nil {
		newStatus := models.CampaignStatus(*req.Status)
		if !newStatus.Valid() {
			return nil, NewBusinessError("INVALID_CAMPAIGN_STATUS", "invalid campaign status", ErrInvalidCampaignStatus)
		}
		if newStatus != campaign.Status {
			if !campaign.CanTransitionTo(newStatus) {
				return nil, NewBusinessError("INVALID_STATUS_TRANSITION",
					fmt.Sprintf("cannot transition from %s to %s", campaign.Status, newStatus), ErrInvalidStatusTransition)
			}
			if newStatus == models.CampaignStatusScheduled && campaign.ScheduledAt == nil {
				return nil, NewBusinessError("SCHEDULE_TIME_REQUIRED", "schedule time is required", ErrScheduleTimeRequired)
			}
			campaign.Status = newStatus
		}
	}

	if err := f.campaignRepo.Update(ctx, *campaign); err != nil {
		return nil, NewBusinessError("CAMPAIGN_UPDATE_FAILED", "failed to update campaign", err)
	}

	out := ToCampaignDTO(*campaign)
	return &out, nil
}

// GetTargetRules returns the campaign's targeting rules, creating the default
// row on first read so later edits always have a row to update.
func (f *CampaignFlowImpl) GetTargetRules(ctx context.Context, campaignID uuid.UUID, auth *AuthContext) (*dto.TargetRuleDTO, error) {
	campaign, err := f.requireCampaign(ctx, campaignID, auth)
	if err != nil {
		return nil, err
	}

	rule, err := f.targetRepo.ByCampaignID(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("TARGET_RULES_FETCH_FAILED", "failed to fetch target rules", err)
	}
	if rule == nil {
		rule = &models.CampaignTargetRule{
			CampaignID:     campaign.ID,
			OrganizationID: campaign.OrganizationID,
		}
		if err := f.targetRepo.Upsert(ctx, rule); err != nil {
			return nil, NewBusinessError("TARGET_RULES_CREATE_FAILED", "failed to create target rules", err)
		}
	}

	out := ToTargetRuleDTO(rule)
	return &out, nil
}

// UpdateTargetRules replaces the campaign's targeting rules
func (f *CampaignFlowImpl) UpdateTargetRules(ctx context.Context, campaignID uuid.UUID, req *dto.UpdateTargetRuleRequest, auth *AuthContext) (*dto.TargetRuleDTO, error) {
	campaign, err := f.requireCampaign(ctx, campaignID, auth)
	if err != nil {
		return nil, err
	}

	if !campaign.IsEditable() {
		return nil, NewBusinessError("CAMPAIGN_UPDATE_NOT_ALLOWED",
			fmt.Sprintf("campaign in status %s cannot be updated", campaign.Status), ErrCampaignUpdateNotAllowed)
	}

	rule := &models.CampaignTargetRule{
		CampaignID:          campaign.ID,
		OrganizationID:      campaign.OrganizationID,
		IncludeTags:         req.IncludeTags,
		ExcludeTags:         req.ExcludeTags,
		ExcludeCountries:    models.NormalizeCountryCodes(req.ExcludeCountries),
		ExcludeUnsubscribed: req.ExcludeUnsubscribed,
		ExcludeInactive:     req.ExcludeInactive,
		ExcludeBounced:      req.ExcludeBounced,
	}

	if err := f.targetRepo.Upsert(ctx, rule); err != nil {
		return nil, NewBusinessError("TARGET_RULES_UPDATE_FAILED", "failed to update target rules", err)
	}

	out := ToTargetRuleDTO(rule)
	return &out, nil
}

// ListRecipients returns a page of the campaign's recipients with contact details
func (f *CampaignFlowImpl) ListRecipients(ctx context.Context, campaignID uuid.UUID, req *dto.ListRecipientsRequest, auth *AuthContext) (*dto.ListRecipientsResponse, error) {
	campaign, err := f.requireCampaign(ctx, campaignID, auth)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, NewBusinessError("INVALID_PAGE", "page must be at least 1", ErrInvalidPage)
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = 50
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("INVALID_PAGE_SIZE", "page size must be between 1 and 100", ErrInvalidPageSize)
	}

	filter := models.RecipientFilter{CampaignID: &campaign.ID}
	if req.Status != nil {
		status := models.RecipientStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("INVALID_RECIPIENT_STATUS", "invalid recipient status", ErrInvalidCampaignStatus)
		}
		filter.Status = &status
	}

	total, err := f.recipientRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("RECIPIENT_LIST_FAILED", "failed to count recipients", err)
	}

	recipients, err := f.recipientRepo.ByFilter(ctx, filter, "created_at ASC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("RECIPIENT_LIST_FAILED", "failed to list recipients", err)
	}

	contacts, err := f.contactsByRecipients(ctx, recipients)
	if err != nil {
		return nil, err
	}

	items := make([]dto.RecipientDTO, 0, len(recipients))
	for _, rec := range recipients {
		items = append(items, ToRecipientDTO(*rec, contacts[rec.ContactID]))
	}

	return &dto.ListRecipientsResponse{
		Items: items,
		Pagination: dto.PaginationDTO{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}, nil
}

// ExportRecipients produces an xlsx workbook of the campaign's recipients.
// Returns the file contents and a suggested filename.
func (f *CampaignFlowImpl) ExportRecipients(ctx context.Context, campaignID uuid.UUID, auth *AuthContext) ([]byte, string, error) {
	campaign, err := f.requireCampaign(ctx, campaignID, auth)
	if err != nil {
		return nil, "", err
	}

	filter := models.RecipientFilter{CampaignID: &campaign.ID}
	recipients, err := f.recipientRepo.ByFilter(ctx, filter, "created_at ASC", 0, 0)
	if err != nil {
		return nil, "", NewBusinessError("RECIPIENT_EXPORT_FAILED", "failed to list recipients", err)
	}

	contacts, err := f.contactsByRecipients(ctx, recipients)
	if err != nil {
		return nil, "", err
	}

	wb := excelize.NewFile()
	defer wb.Close()

	const sheet = "Recipients"
	wb.SetSheetName(wb.GetSheetName(0), sheet)

	headers := []string{"Email", "First Name", "Last Name", "Country", "Status", "Sent At", "Bounced At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := wb.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", NewBusinessError("RECIPIENT_EXPORT_FAILED", "failed to build export", err)
		}
	}

	for rowIdx, rec := range recipients {
		row := ToRecipientDTO(*rec, contacts[rec.ContactID])
		values := []string{row.Email, row.FirstName, row.LastName, row.Country, row.Status, row.SentAt, row.BouncedAt}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := wb.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", NewBusinessError("RECIPIENT_EXPORT_FAILED", "failed to build export", err)
			}
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, "", NewBusinessError("RECIPIENT_EXPORT_FAILED", "failed to serialize export", err)
	}

	filename := fmt.Sprintf("campaign-%s-recipients.xlsx", campaign.ID)
	return buf.Bytes(), filename, nil
}

// GetAnalytics computes aggregate delivery metrics for a campaign. Rates are
// computed against the total recipient count, zero when there are none.
func (f *CampaignFlowImpl) GetAnalytics(ctx context.Context, campaignID uuid.UUID, auth *AuthContext) (*dto.CampaignAnalyticsDTO, error) {
	campaign, err := f.requireCampaign(ctx, campaignID, auth)
	if err != nil {
		return nil, err
	}

	counts, err := f.recipientRepo.AnalyticsCounts(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "failed to compute analytics", err)
	}

	out := &dto.CampaignAnalyticsDTO{
		CampaignID: campaign.ID.String(),
		Status:     campaign.Status.String(),
		Total:      counts.Total,
		Pending:    counts.Pending,
		Sent:       counts.Sent,
		Delivered:  counts.Delivered,
		Opened:     counts.Opened,
		Clicked:    counts.Clicked,
		Bounced:    counts.Bounced,
	}
	if counts.Total > 0 {
		total := float64(counts.Total)
		out.OpenRate = float64(counts.Opened+counts.Clicked) / total
		out.ClickRate = float64(counts.Clicked) / total
		out.BounceRate = float64(counts.Bounced) / total
		out.DeliveryRate = float64(counts.Delivered+counts.Opened+counts.Clicked) / total
	}

	return out, nil
}

// requireCampaign fetches the campaign scoped to the caller's organization
func (f *CampaignFlowImpl) requireCampaign(ctx context.Context, campaignID uuid.UUID, auth *AuthContext) (*models.Campaign, error) {
	if auth == nil || auth.OrganizationID == uuid.Nil {
		return nil, NewBusinessError("ORGANIZATION_ID_REQUIRED", "organization ID is required", ErrOrganizationIDRequired)
	}

	campaign, err := f.campaignRepo.ByIDAndOrg(ctx, campaignID, auth.OrganizationID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_FETCH_FAILED", "failed to fetch campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "campaign not found", ErrCampaignNotFound)
	}

	return campaign, nil
}

func (f *CampaignFlowImpl) contactsByRecipients(ctx context.Context, recipients []*models.CampaignRecipient) (map[uuid.UUID]*models.Contact, error) {
	ids := make([]uuid.UUID, 0, len(recipients))
	for _, rec := range recipients {
		ids = append(ids, rec.ContactID)
	}

	contacts, err := f.contactRepo.ByIDs(ctx, ids)
	if err != nil {
		return nil, NewBusinessError("CONTACT_FETCH_FAILED", "failed to fetch contacts", err)
	}

	byID := make(map[uuid.UUID]*models.Contact, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c
	}
	return byID, nil
}
