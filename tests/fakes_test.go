// Package tests contains test cases for models, repository and business flow packages to avoid circular imports
package tests

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/heraldhq/herald/app/services"
	"github.com/heraldhq/herald/models"
	"github.com/heraldhq/herald/repository"
	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
)

// In-memory repository fakes. The business flows depend only on the repository
// interfaces, so these let flow tests run without a database.

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*models.Campaign
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[uuid.UUID]*models.Campaign)}
}

func (r *fakeCampaignRepo) ByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCampaignRepo) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Campaign
	for _, c := range r.campaigns {
		if !campaignMatches(c, filter) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	desc := strings.Contains(strings.ToUpper(orderBy), "DESC")
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return paginate(out, limit, offset), nil
}

func (r *fakeCampaignRepo) Save(ctx context.Context, campaign *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if campaign.ID == uuid.Nil {
		campaign.ID = uuid.New()
	}
	if campaign.Status == "" {
		campaign.Status = models.CampaignStatusDraft
	}
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = utils.UTCNow()
	}
	cp := *campaign
	r.campaigns[campaign.ID] = &cp
	return nil
}

func (r *fakeCampaignRepo) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.campaigns {
		if campaignMatches(c, filter) {
			n++
		}
	}
	return n, nil
}

func (r *fakeCampaignRepo) Exists(ctx context.Context, filter models.CampaignFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeCampaignRepo) ByIDAndOrg(ctx context.Context, id, organizationID uuid.UUID) (*models.Campaign, error) {
	c, err := r.ByID(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	if c.OrganizationID != organizationID {
		return nil, nil
	}
	return c, nil
}

func (r *fakeCampaignRepo) Update(ctx context.Context, campaign models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := campaign
	now := utils.UTCNow()
	cp.UpdatedAt = &now
	r.campaigns[campaign.ID] = &cp
	return nil
}

func (r *fakeCampaignRepo) ListDue(ctx context.Context, now time.Time, organizationID *uuid.UUID) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Campaign
	for _, c := range r.campaigns {
		if !c.IsDue(now) {
			continue
		}
		if organizationID != nil && c.OrganizationID != *organizationID {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(*out[j].ScheduledAt)
	})
	return out, nil
}

func (r *fakeCampaignRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.CampaignStatus, sentAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	if sentAt != nil {
		c.SentAt = sentAt
	}
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return true, nil
}

func campaignMatches(c *models.Campaign, filter models.CampaignFilter) bool {
	if filter.ID != nil && c.ID != *filter.ID {
		return false
	}
	if filter.OrganizationID != nil && c.OrganizationID != *filter.OrganizationID {
		return false
	}
	if filter.Status != nil && c.Status != *filter.Status {
		return false
	}
	if filter.CreatedBy != nil && c.CreatedBy != *filter.CreatedBy {
		return false
	}
	return true
}

type fakeTargetRuleRepo struct {
	mu    sync.Mutex
	rules map[uuid.UUID]*models.CampaignTargetRule // keyed by campaign ID
}

func newFakeTargetRuleRepo() *fakeTargetRuleRepo {
	return &fakeTargetRuleRepo{rules: make(map[uuid.UUID]*models.CampaignTargetRule)}
}

func (r *fakeTargetRuleRepo) ByID(ctx context.Context, id uuid.UUID) (*models.CampaignTargetRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range r.rules {
		if rule.ID == id {
			cp := *rule
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTargetRuleRepo) ByFilter(ctx context.Context, filter models.TargetRuleFilter, orderBy string, limit, offset int) ([]*models.CampaignTargetRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CampaignTargetRule
	for _, rule := range r.rules {
		if filter.CampaignID != nil && rule.CampaignID != *filter.CampaignID {
			continue
		}
		if filter.OrganizationID != nil && rule.OrganizationID != *filter.OrganizationID {
			continue
		}
		cp := *rule
		out = append(out, &cp)
	}
	return paginate(out, limit, offset), nil
}

func (r *fakeTargetRuleRepo) Save(ctx context.Context, rule *models.CampaignTargetRule) error {
	return r.Upsert(ctx, rule)
}

func (r *fakeTargetRuleRepo) Count(ctx context.Context, filter models.TargetRuleFilter) (int64, error) {
	rules, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rules)), err
}

func (r *fakeTargetRuleRepo) Exists(ctx context.Context, filter models.TargetRuleFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeTargetRuleRepo) ByCampaignID(ctx context.Context, campaignID uuid.UUID) (*models.CampaignTargetRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[campaignID]
	if !ok {
		return nil, nil
	}
	cp := *rule
	return &cp, nil
}

func (r *fakeTargetRuleRepo) Upsert(ctx context.Context, rule *models.CampaignTargetRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rules[rule.CampaignID]; ok {
		rule.ID = existing.ID
		rule.CreatedAt = existing.CreatedAt
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = utils.UTCNow()
	}
	cp := *rule
	r.rules[rule.CampaignID] = &cp
	return nil
}

type recipientKey struct {
	campaignID uuid.UUID
	contactID  uuid.UUID
}

type fakeRecipientRepo struct {
	mu   sync.Mutex
	rows map[recipientKey]*models.CampaignRecipient
	seq  int
}

func newFakeRecipientRepo() *fakeRecipientRepo {
	return &fakeRecipientRepo{rows: make(map[recipientKey]*models.CampaignRecipient)}
}

func (r *fakeRecipientRepo) ByID(ctx context.Context, id uuid.UUID) (*models.CampaignRecipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.rows {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRecipientRepo) ByFilter(ctx context.Context, filter models.RecipientFilter, orderBy string, limit, offset int) ([]*models.CampaignRecipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CampaignRecipient
	for _, rec := range r.rows {
		if !recipientMatches(rec, filter) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return paginate(out, limit, offset), nil
}

func (r *fakeRecipientRepo) Save(ctx context.Context, rec *models.CampaignRecipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertLocked(rec)
	return nil
}

func (r *fakeRecipientRepo) Count(ctx context.Context, filter models.RecipientFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.rows {
		if recipientMatches(rec, filter) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRecipientRepo) Exists(ctx context.Context, filter models.RecipientFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeRecipientRepo) ContactIDsByCampaign(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for key := range r.rows {
		if key.campaignID == campaignID {
			out = append(out, key.contactID)
		}
	}
	return out, nil
}

func (r *fakeRecipientRepo) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	return r.Count(ctx, models.RecipientFilter{CampaignID: &campaignID})
}

func (r *fakeRecipientRepo) BulkInsertPending(ctx context.Context, recipients []*models.CampaignRecipient) (*repository.BulkInsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := &repository.BulkInsertResult{}
	for _, rec := range recipients {
		key := recipientKey{campaignID: rec.CampaignID, contactID: rec.ContactID}
		if _, ok := r.rows[key]; ok {
			result.DuplicateSkipped++
			continue
		}
		r.insertLocked(rec)
		result.Inserted++
	}
	return result, nil
}

func (r *fakeRecipientRepo) BouncedContactIDs(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, rec := range r.rows {
		if rec.OrganizationID != organizationID || rec.Status != models.RecipientStatusBounced {
			continue
		}
		if _, ok := seen[rec.ContactID]; ok {
			continue
		}
		seen[rec.ContactID] = struct{}{}
		out = append(out, rec.ContactID)
	}
	return out, nil
}

func (r *fakeRecipientRepo) MarkBounced(ctx context.Context, campaignID, contactID, organizationID uuid.UUID) (*models.CampaignRecipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[recipientKey{campaignID: campaignID, contactID: contactID}]
	if !ok || rec.OrganizationID != organizationID {
		return nil, nil
	}
	rec.Status = models.RecipientStatusBounced
	rec.BouncedAt = utils.UTCNowPtr()
	return rec, nil
}

func (r *fakeRecipientRepo) BulkMarkBounced(ctx context.Context, campaignID uuid.UUID, contactIDs []uuid.UUID, organizationID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, contactID := range contactIDs {
		rec, ok := r.rows[recipientKey{campaignID: campaignID, contactID: contactID}]
		if !ok || rec.OrganizationID != organizationID {
			continue
		}
		rec.Status = models.RecipientStatusBounced
		rec.BouncedAt = utils.UTCNowPtr()
		n++
	}
	return n, nil
}

func (r *fakeRecipientRepo) MarkSent(ctx context.Context, ids []uuid.UUID, sentAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idSet := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	var n int64
	for _, rec := range r.rows {
		if _, ok := idSet[rec.ID]; !ok {
			continue
		}
		if rec.Status != models.RecipientStatusPending {
			continue
		}
		rec.Status = models.RecipientStatusSent
		ts := sentAt
		rec.SentAt = &ts
		n++
	}
	return n, nil
}

func (r *fakeRecipientRepo) AnalyticsCounts(ctx context.Context, campaignID uuid.UUID) (*models.RecipientCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := &models.RecipientCounts{}
	for _, rec := range r.rows {
		if rec.CampaignID != campaignID {
			continue
		}
		counts.Total++
		switch rec.Status {
		case models.RecipientStatusPending:
			counts.Pending++
		case models.RecipientStatusSent:
			counts.Sent++
		case models.RecipientStatusDelivered:
			counts.Delivered++
		case models.RecipientStatusOpened:
			counts.Opened++
		case models.RecipientStatusClicked:
			counts.Clicked++
		case models.RecipientStatusBounced:
			counts.Bounced++
		}
	}
	return counts, nil
}

func (r *fakeRecipientRepo) insertLocked(rec *models.CampaignRecipient) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Status == "" {
		rec.Status = models.RecipientStatusPending
	}
	if rec.CreatedAt.IsZero() {
		// Strictly increasing timestamps keep list ordering deterministic
		r.seq++
		rec.CreatedAt = utils.UTCNow().Add(time.Duration(r.seq) * time.Microsecond)
	}
	cp := *rec
	r.rows[recipientKey{campaignID: rec.CampaignID, contactID: rec.ContactID}] = &cp
}

func recipientMatches(rec *models.CampaignRecipient, filter models.RecipientFilter) bool {
	if filter.CampaignID != nil && rec.CampaignID != *filter.CampaignID {
		return false
	}
	if filter.ContactID != nil && rec.ContactID != *filter.ContactID {
		return false
	}
	if filter.OrganizationID != nil && rec.OrganizationID != *filter.OrganizationID {
		return false
	}
	if filter.Status != nil && rec.Status != *filter.Status {
		return false
	}
	return true
}

type fakeContactRepo struct {
	mu       sync.Mutex
	contacts map[uuid.UUID]*models.Contact
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: make(map[uuid.UUID]*models.Contact)}
}

func (r *fakeContactRepo) add(c *models.Contact) *models.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.contacts[c.ID] = &cp
	return c
}

func (r *fakeContactRepo) ByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.DeletedAt != nil {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContactRepo) EligibleContactIDs(ctx context.Context, filter models.ContactFilter) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	excluded := make(map[string]struct{}, len(filter.ExcludeCountries))
	for _, code := range filter.ExcludeCountries {
		excluded[code] = struct{}{}
	}
	var out []uuid.UUID
	for _, c := range r.contacts {
		if c.DeletedAt != nil {
			continue
		}
		if filter.OrganizationID != nil && c.OrganizationID != *filter.OrganizationID {
			continue
		}
		if filter.RequireEmail && (c.Email == nil || *c.Email == "") {
			continue
		}
		if filter.IsActive != nil && c.IsActive != *filter.IsActive {
			continue
		}
		if filter.IsSubscribed != nil && c.IsSubscribed != *filter.IsSubscribed {
			continue
		}
		if c.Country != nil {
			code := strings.ToLower(strings.TrimSpace(*c.Country))
			if _, ok := excluded[code]; ok {
				continue
			}
		}
		out = append(out, c.ID)
	}
	return out, nil
}

func (r *fakeContactRepo) ByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Contact
	for _, id := range ids {
		if c, ok := r.contacts[id]; ok && c.DeletedAt == nil {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeEmailSender struct {
	mu      sync.Mutex
	sent    []services.EmailMessage
	failFor map[string]error
}

func newFakeEmailSender() *fakeEmailSender {
	return &fakeEmailSender{failFor: make(map[string]error)}
}

func (s *fakeEmailSender) Send(ctx context.Context, msg services.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[msg.To]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeEmailSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func paginate[T any](items []*T, limit, offset int) []*T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
