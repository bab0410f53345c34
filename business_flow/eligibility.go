package businessflow

import (
	"context"

	"github.com/heraldhq/herald/models"
	"github.com/heraldhq/herald/repository"
	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
)

// EligibilityEvaluator resolves a campaign's targeting rules into the set of
// contact IDs eligible to receive it. Tag rules are accepted and persisted but
// not evaluated here; the audience is filtered on activity, subscription,
// country and bounce history only.
type EligibilityEvaluator interface {
	Evaluate(ctx context.Context, organizationID uuid.UUID, rules models.EffectiveTargetRule) ([]uuid.UUID, error)
}

type eligibilityEvaluator struct {
	contactRepo   repository.ContactRepository
	recipientRepo repository.RecipientRepository
}

// NewEligibilityEvaluator creates a new eligibility evaluator
func NewEligibilityEvaluator(
	contactRepo repository.ContactRepository,
	recipientRepo repository.RecipientRepository,
) EligibilityEvaluator {
	return &eligibilityEvaluator{
		contactRepo:   contactRepo,
		recipientRepo: recipientRepo,
	}
}

// Evaluate returns the eligible contact IDs for the organization under the
// given resolved rules. When bounce exclusion is on, contacts with a bounced
// recipient row in any of the organization's campaigns are subtracted.
func (e *eligibilityEvaluator) Evaluate(ctx context.Context, organizationID uuid.UUID, rules models.EffectiveTargetRule) ([]uuid.UUID, error) {
	if organizationID == uuid.Nil {
		return nil, NewBusinessError("ORGANIZATION_ID_REQUIRED", "organization ID is required", ErrOrganizationIDRequired)
	}

	filter := models.ContactFilter{
		OrganizationID:   &organizationID,
		RequireEmail:     true,
		ExcludeCountries: models.NormalizeCountryCodes(rules.ExcludeCountries),
	}
	if rules.ExcludeInactive {
		filter.IsActive = utils.ToPtr(true)
	}
	if rules.ExcludeUnsubscribed {
		filter.IsSubscribed = utils.ToPtr(true)
	}

	ids, err := e.contactRepo.EligibleContactIDs(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("ELIGIBILITY_QUERY_FAILED", "failed to query eligible contacts", err)
	}

	if !rules.ExcludeBounced || len(ids) == 0 {
		return ids, nil
	}

	bounced, err := e.recipientRepo.BouncedContactIDs(ctx, organizationID)
	if err != nil {
		return nil, NewBusinessError("BOUNCE_QUERY_FAILED", "failed to query bounced contacts", err)
	}
	if len(bounced) == 0 {
		return ids, nil
	}

	bouncedSet := make(map[uuid.UUID]struct{}, len(bounced))
	for _, id := range bounced {
		bouncedSet[id] = struct{}{}
	}

	out := ids[:0]
	for _, id := range ids {
		if _, ok := bouncedSet[id]; !ok {
			out = append(out, id)
		}
	}

	return out, nil
}
