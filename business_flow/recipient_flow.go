package businessflow

import (
	"context"

	"github.com/heraldhq/herald/app/dto"
	"github.com/heraldhq/herald/models"
	"github.com/heraldhq/herald/repository"
	"github.com/google/uuid"
)

// RecipientFlow defines recipient generation and bounce recording operations
type RecipientFlow interface {
	// GenerateRecipients materializes the campaign's current eligible audience
	// into recipient rows. Safe to call repeatedly; contacts already targeted
	// are skipped, never duplicated.
	GenerateRecipients(ctx context.Context, campaignID uuid.UUID, auth *AuthContext) (*dto.GenerateRecipientsResponse, error)
	RecordBounce(ctx context.Context, req *dto.RecordBounceRequest) (*dto.RecordBounceResponse, error)
}

// RecipientFlowImpl implements the RecipientFlow interface
type RecipientFlowImpl struct {
	campaignRepo  repository.CampaignRepository
	targetRepo    repository.TargetRuleRepository
	recipientRepo repository.RecipientRepository
	contactRepo   repository.ContactRepository
	evaluator     EligibilityEvaluator
}

// NewRecipientFlow creates a new recipient flow
func NewRecipientFlow(
	campaignRepo repository.CampaignRepository,
	targetRepo repository.TargetRuleRepository,
	recipientRepo repository.RecipientRepository,
	contactRepo repository.ContactRepository,
	evaluator EligibilityEvaluator,
) RecipientFlow {
	return &RecipientFlowImpl{
		campaignRepo:  campaignRepo,
		targetRepo:    targetRepo,
		recipientRepo: recipientRepo,
		contactRepo:   contactRepo,
		evaluator:     evaluator,
	}
}

// GenerateRecipients resolves the campaign's effective rules, evaluates
// eligibility, diffs against the contacts already targeted, and inserts
// pending rows for the remainder. skipped_count is everything eligible that
// did not produce a new row, whether seen in the diff or lost to a concurrent
// insert.
func (f *RecipientFlowImpl) GenerateRecipients(ctx context.Context, campaignID uuid.UUID, auth *AuthContext) (*dto.GenerateRecipientsResponse, error) {
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

	rule, err := f.targetRepo.ByCampaignID(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("TARGET_RULES_FETCH_FAILED", "failed to fetch target rules", err)
	}
	effective := rule.Effective()

	eligible, err := f.evaluator.Evaluate(ctx, campaign.OrganizationID, effective)
	if err != nil {
		return nil, err
	}

	existing, err := f.recipientRepo.ContactIDsByCampaign(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("RECIPIENT_FETCH_FAILED", "failed to fetch existing recipients", err)
	}
	existingSet := make(map[uuid.UUID]struct{}, len(existing))
	for _, id := range existing {
		existingSet[id] = struct{}{}
	}

	newRows := make([]*models.CampaignRecipient, 0, len(eligible))
	for _, contactID := range eligible {
		if _, ok := existingSet[contactID]; ok {
			continue
		}
		newRows = append(newRows, &models.CampaignRecipient{
			CampaignID:     campaign.ID,
			ContactID:      contactID,
			OrganizationID: campaign.OrganizationID,
			Status:         models.RecipientStatusPending,
		})
	}

	added := 0
	if len(newRows) > 0 {
		result, err := f.recipientRepo.BulkInsertPending(ctx, newRows)
		if err != nil && result != nil && result.Inserted == 0 {
			return nil, NewBusinessError("RECIPIENT_INSERT_FAILED", "failed to insert recipients", err)
		}
		if result != nil {
			added = result.Inserted
		}
	}

	count, err := f.recipientRepo.CountByCampaign(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("RECIPIENT_COUNT_FAILED", "failed to count recipients", err)
	}

	return &dto.GenerateRecipientsResponse{
		CampaignID:     campaign.ID.String(),
		TotalContacts:  len(eligible),
		AddedCount:     added,
		SkippedCount:   len(eligible) - added,
		RecipientCount: count,
	}, nil
}

// RecordBounce flags recipient rows of the campaign as bounced, feeding
// future eligibility evaluations. A single contact is an existence-checked
// update; a batch tolerates contacts with no recipient row.
func (f *RecipientFlowImpl) RecordBounce(ctx context.Context, req *dto.RecordBounceRequest) (*dto.RecordBounceResponse, error) {
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil || orgID == uuid.Nil {
		return nil, NewBusinessError("ORGANIZATION_ID_REQUIRED", "organization ID is required", ErrOrganizationIDRequired)
	}
	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "campaign not found", ErrCampaignNotFound)
	}

	campaign, err := f.campaignRepo.ByIDAndOrg(ctx, campaignID, orgID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_FETCH_FAILED", "failed to fetch campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "campaign not found", ErrCampaignNotFound)
	}

	if req.ContactID != "" {
		contactID, err := uuid.Parse(req.ContactID)
		if err != nil {
			return nil, NewBusinessError("CONTACT_NOT_FOUND", "contact not found", ErrContactNotFound)
		}
		recipient, err := f.recipientRepo.MarkBounced(ctx, campaign.ID, contactID, orgID)
		if err != nil {
			return nil, NewBusinessError("BOUNCE_RECORD_FAILED", "failed to record bounce", err)
		}
		if recipient == nil {
			return nil, NewBusinessError("RECIPIENT_NOT_FOUND", "recipient not found", ErrRecipientNotFound)
		}
		return &dto.RecordBounceResponse{
			CampaignID:  campaign.ID.String(),
			RowsUpdated: 1,
		}, nil
	}

	contactIDs := make([]uuid.UUID, 0, len(req.ContactIDs))
	for _, raw := range req.ContactIDs {
		contactID, err := uuid.Parse(raw)
		if err != nil {
			return nil, NewBusinessError("CONTACT_NOT_FOUND", "contact not found", ErrContactNotFound)
		}
		contactIDs = append(contactIDs, contactID)
	}

	updated, err := f.recipientRepo.BulkMarkBounced(ctx, campaign.ID, contactIDs, orgID)
	if err != nil {
		return nil, NewBusinessError("BOUNCE_RECORD_FAILED", "failed to record bounces", err)
	}

	return &dto.RecordBounceResponse{
		CampaignID:  campaign.ID.String(),
		RowsUpdated: updated,
	}, nil
}
