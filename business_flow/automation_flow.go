package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/heraldhq/herald/app/dto"
	"github.com/heraldhq/herald/app/services"
	"github.com/heraldhq/herald/models"
	"github.com/heraldhq/herald/repository"
	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// automationLeaseTTL bounds how long one worker can hold a campaign before
// another run may retry it
const automationLeaseTTL = 10 * time.Minute

// AutomationFlow processes due campaigns: generates recipients when none
// exist, dispatches the sends and advances the campaign to sent. One failing
// campaign never aborts the run.
type AutomationFlow interface {
	Run(ctx context.Context, organizationID *uuid.UUID) (*dto.RunAutomationResponse, error)
}

// AutomationFlowImpl implements the AutomationFlow interface
type AutomationFlowImpl struct {
	campaignRepo  repository.CampaignRepository
	recipientRepo repository.RecipientRepository
	contactRepo   repository.ContactRepository
	recipientFlow RecipientFlow
	sender        services.EmailSender
	cache         *redis.Client
	systemUserID  uuid.UUID
}

// NewAutomationFlow creates a new automation flow. cache may be nil, in which
// case the per-campaign lease is skipped and only the conditional status
// update guards against concurrent runners.
func NewAutomationFlow(
	campaignRepo repository.CampaignRepository,
	recipientRepo repository.RecipientRepository,
	contactRepo repository.ContactRepository,
	recipientFlow RecipientFlow,
	sender services.EmailSender,
	cache *redis.Client,
	systemUserID uuid.UUID,
) AutomationFlow {
	return &AutomationFlowImpl{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		contactRepo:   contactRepo,
		recipientFlow: recipientFlow,
		sender:        sender,
		cache:         cache,
		systemUserID:  systemUserID,
	}
}

// Run processes every due campaign, narrowed to one organization when
// organizationID is set. Returns an error only when the due list itself
// cannot be loaded.
func (f *AutomationFlowImpl) Run(ctx context.Context, organizationID *uuid.UUID) (*dto.RunAutomationResponse, error) {
	now := utils.UTCNow()

	due, err := f.campaignRepo.ListDue(ctx, now, organizationID)
	if err != nil {
		return nil, NewBusinessError("DUE_LIST_FAILED", "failed to list due campaigns", err)
	}

	resp := &dto.RunAutomationResponse{
		DueCount:  len(due),
		Campaigns: make([]dto.AutomationCampaignResult, 0, len(due)),
		RanAt:     now.Format(time.RFC3339),
	}

	for _, campaign := range due {
		result := f.processCampaign(ctx, campaign, now)
		resp.Campaigns = append(resp.Campaigns, result)
		switch {
		case result.Error != "":
			resp.Failed++
		case !result.Skipped:
			resp.Processed++
		}
	}

	return resp, nil
}

// processCampaign runs one campaign end to end. Panics are contained so a
// single bad campaign cannot take down the whole run.
func (f *AutomationFlowImpl) processCampaign(ctx context.Context, campaign *models.Campaign, now time.Time) (result dto.AutomationCampaignResult) {
	result = dto.AutomationCampaignResult{
		CampaignID: campaign.ID.String(),
		Name:       campaign.Name,
		Status:     campaign.Status.String(),
	}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Sprintf("panic while processing campaign: %v", r)
		}
	}()

	release, acquired, err := f.acquireLease(ctx, campaign.ID)
	if err != nil {
		result.Error = fmt.Sprintf("failed to acquire lease: %v", err)
		return result
	}
	if !acquired {
		result.Skipped = true
		result.SkipReason = "claimed by another worker"
		return result
	}
	defer release()

	count, err := f.recipientRepo.CountByCampaign(ctx, campaign.ID)
	if err != nil {
		result.Error = fmt.Sprintf("failed to count recipients: %v", err)
		return result
	}

	if count == 0 {
		auth := &AuthContext{
			OrganizationID: campaign.OrganizationID,
			UserID:         f.systemUserID,
		}
		gen, err := f.recipientFlow.GenerateRecipients(ctx, campaign.ID, auth)
		if err != nil {
			result.Error = fmt.Sprintf("failed to generate recipients: %v", err)
			return result
		}
		result.Generated = true
		count = gen.RecipientCount
	}
	result.RecipientCount = count

	ok, err := f.campaignRepo.TransitionStatus(ctx, campaign.ID, models.CampaignStatusScheduled, models.CampaignStatusSending, nil)
	if err != nil {
		result.Error = fmt.Sprintf("failed to start sending: %v", err)
		return result
	}
	if !ok {
		// Another worker moved the campaign between the due query and now
		result.Skipped = true
		result.SkipReason = "no longer scheduled"
		return result
	}
	result.Status = models.CampaignStatusSending.String()

	if err := f.dispatch(ctx, campaign); err != nil {
		result.Error = fmt.Sprintf("failed to dispatch sends: %v", err)
		return result
	}

	sentAt := utils.UTCNow()
	ok, err = f.campaignRepo.TransitionStatus(ctx, campaign.ID, models.CampaignStatusSending, models.CampaignStatusSent, &sentAt)
	if err != nil {
		result.Error = fmt.Sprintf("failed to finish campaign: %v", err)
		return result
	}
	if ok {
		result.Status = models.CampaignStatusSent.String()
	}

	return result
}

// dispatch sends the campaign to every pending recipient and marks the
// successfully handed-off rows as sent
func (f *AutomationFlowImpl) dispatch(ctx context.Context, campaign *models.Campaign) error {
	status := models.RecipientStatusPending
	filter := models.RecipientFilter{CampaignID: &campaign.ID, Status: &status}

	pending, err := f.recipientRepo.ByFilter(ctx, filter, "created_at ASC", 0, 0)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	contactIDs := make([]uuid.UUID, 0, len(pending))
	for _, rec := range pending {
		contactIDs = append(contactIDs, rec.ContactID)
	}
	contacts, err := f.contactRepo.ByIDs(ctx, contactIDs)
	if err != nil {
		return err
	}
	emailByContact := make(map[uuid.UUID]string, len(contacts))
	for _, c := range contacts {
		if c.Email != nil {
			emailByContact[c.ID] = *c.Email
		}
	}

	sentIDs := make([]uuid.UUID, 0, len(pending))
	for _, rec := range pending {
		email, ok := emailByContact[rec.ContactID]
		if !ok {
			continue
		}
		msg := services.EmailMessage{
			To:           email,
			CampaignID:   campaign.ID.String(),
			CampaignName: campaign.Name,
		}
		if err := f.sender.Send(ctx, msg); err != nil {
			continue
		}
		sentIDs = append(sentIDs, rec.ID)
	}

	_, err = f.recipientRepo.MarkSent(ctx, sentIDs, utils.UTCNow())
	return err
}

// acquireLease takes a short-lived per-campaign lock in redis. Reports
// acquired=true with a no-op release when no cache is configured.
func (f *AutomationFlowImpl) acquireLease(ctx context.Context, campaignID uuid.UUID) (func(), bool, error) {
	if f.cache == nil {
		return func() {}, true, nil
	}

	key := fmt.Sprintf("automation:lease:%s", campaignID)
	acquired, err := f.cache.SetNX(ctx, key, "1", automationLeaseTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		f.cache.Del(context.WithoutCancel(ctx), key)
	}
	return release, true, nil
}
