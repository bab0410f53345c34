package tests

import (
	"testing"
	"time"

	"github.com/heraldhq/herald/models"
	"github.com/heraldhq/herald/repository"
	testingutil "github.com/heraldhq/herald/testing"
	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withTestDB provisions a throwaway database, skipping when no PostgreSQL
// server is reachable so the pure unit tests still run everywhere.
func withTestDB(t *testing.T) *testingutil.TestDB {
	t.Helper()
	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testDB.TeardownTestDB(); err != nil {
			t.Logf("warning: failed to cleanup test database: %v", err)
		}
	})
	return testDB
}

func TestCampaignRepository(t *testing.T) {
	testDB := withTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	repo := repository.NewCampaignRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	orgID := uuid.New()
	userID := uuid.New()

	t.Run("SaveAndByID", func(t *testing.T) {
		campaign := &models.Campaign{
			OrganizationID: orgID,
			Name:           "Repo Campaign",
			Status:         models.CampaignStatusDraft,
			CreatedBy:      userID,
		}
		require.NoError(t, repo.Save(ctx, campaign))
		assert.NotEqual(t, uuid.Nil, campaign.ID)

		found, err := repo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Repo Campaign", found.Name)
		assert.Equal(t, models.CampaignStatusDraft, found.Status)
	})

	t.Run("ByIDNotFound", func(t *testing.T) {
		found, err := repo.ByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("ByIDAndOrgScoping", func(t *testing.T) {
		campaign, err := fixtures.CreateTestCampaign(orgID, userID, models.CampaignStatusDraft, nil)
		require.NoError(t, err)

		found, err := repo.ByIDAndOrg(ctx, campaign.ID, orgID)
		require.NoError(t, err)
		assert.NotNil(t, found)

		found, err = repo.ByIDAndOrg(ctx, campaign.ID, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("TransitionStatusGuard", func(t *testing.T) {
		past := utils.UTCNow().Add(-time.Minute)
		campaign, err := fixtures.CreateTestCampaign(orgID, userID, models.CampaignStatusScheduled, &past)
		require.NoError(t, err)

		ok, err := repo.TransitionStatus(ctx, campaign.ID, models.CampaignStatusScheduled, models.CampaignStatusSending, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		// Second transition from scheduled must lose: the row is now sending
		ok, err = repo.TransitionStatus(ctx, campaign.ID, models.CampaignStatusScheduled, models.CampaignStatusSending, nil)
		require.NoError(t, err)
		assert.False(t, ok)

		sentAt := utils.UTCNow()
		ok, err = repo.TransitionStatus(ctx, campaign.ID, models.CampaignStatusSending, models.CampaignStatusSent, &sentAt)
		require.NoError(t, err)
		assert.True(t, ok)

		found, err := repo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CampaignStatusSent, found.Status)
		assert.NotNil(t, found.SentAt)
	})

	t.Run("ListDue", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		past := utils.UTCNow().Add(-time.Hour)
		future := utils.UTCNow().Add(time.Hour)

		due, err := fixtures.CreateTestCampaign(orgID, userID, models.CampaignStatusScheduled, &past)
		require.NoError(t, err)
		_, err = fixtures.CreateTestCampaign(orgID, userID, models.CampaignStatusScheduled, &future)
		require.NoError(t, err)
		_, err = fixtures.CreateTestCampaign(orgID, userID, models.CampaignStatusPaused, &past)
		require.NoError(t, err)
		_, err = fixtures.CreateTestCampaign(orgID, userID, models.CampaignStatusScheduled, nil)
		require.NoError(t, err)

		listed, err := repo.ListDue(ctx, utils.UTCNow(), nil)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, due.ID, listed[0].ID)

		otherOrg := uuid.New()
		listed, err = repo.ListDue(ctx, utils.UTCNow(), &otherOrg)
		require.NoError(t, err)
		assert.Empty(t, listed)

		listed, err = repo.ListDue(ctx, utils.UTCNow(), &orgID)
		require.NoError(t, err)
		assert.Len(t, listed, 1)
	})

	t.Run("ByFilter", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		_, err := fixtures.CreateTestCampaign(orgID, userID, models.CampaignStatusDraft, nil)
		require.NoError(t, err)
		_, err = fixtures.CreateTestCampaign(orgID, userID, models.CampaignStatusPaused, nil)
		require.NoError(t, err)
		_, err = fixtures.CreateTestCampaign(uuid.New(), userID, models.CampaignStatusDraft, nil)
		require.NoError(t, err)

		status := models.CampaignStatusDraft
		campaigns, err := repo.ByFilter(ctx, models.CampaignFilter{OrganizationID: &orgID, Status: &status}, "created_at DESC", 0, 0)
		require.NoError(t, err)
		assert.Len(t, campaigns, 1)

		count, err := repo.Count(ctx, models.CampaignFilter{OrganizationID: &orgID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestTargetRuleRepository(t *testing.T) {
	testDB := withTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	repo := repository.NewTargetRuleRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	orgID := uuid.New()
	campaign, err := fixtures.CreateTestCampaign(orgID, uuid.New(), models.CampaignStatusDraft, nil)
	require.NoError(t, err)

	t.Run("ByCampaignIDMissing", func(t *testing.T) {
		rule, err := repo.ByCampaignID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Nil(t, rule)
	})

	t.Run("UpsertCreatesThenReplaces", func(t *testing.T) {
		rule := &models.CampaignTargetRule{
			CampaignID:       campaign.ID,
			OrganizationID:   orgID,
			ExcludeCountries: []string{"de"},
			ExcludeBounced:   utils.ToPtr(true),
		}
		require.NoError(t, repo.Upsert(ctx, rule))

		replacement := &models.CampaignTargetRule{
			CampaignID:          campaign.ID,
			OrganizationID:      orgID,
			IncludeTags:         []string{"newsletter"},
			ExcludeCountries:    []string{"fr", "it"},
			ExcludeUnsubscribed: utils.ToPtr(false),
		}
		require.NoError(t, repo.Upsert(ctx, replacement))

		found, err := repo.ByCampaignID(ctx, campaign.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, []string{"fr", "it"}, []string(found.ExcludeCountries))
		assert.Equal(t, []string{"newsletter"}, []string(found.IncludeTags))
		require.NotNil(t, found.ExcludeUnsubscribed)
		assert.False(t, *found.ExcludeUnsubscribed)

		// Still exactly one row for the campaign
		count, err := repo.Count(ctx, models.TargetRuleFilter{CampaignID: &campaign.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestRecipientRepository(t *testing.T) {
	testDB := withTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	repo := repository.NewRecipientRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	orgID := uuid.New()
	campaign, err := fixtures.CreateTestCampaign(orgID, uuid.New(), models.CampaignStatusDraft, nil)
	require.NoError(t, err)

	t.Run("BulkInsertPendingToleratesDuplicates", func(t *testing.T) {
		contactA, err := fixtures.CreateTestContact(orgID)
		require.NoError(t, err)
		contactB, err := fixtures.CreateTestContact(orgID)
		require.NoError(t, err)

		rows := []*models.CampaignRecipient{
			{CampaignID: campaign.ID, ContactID: contactA.ID, OrganizationID: orgID, Status: models.RecipientStatusPending},
			{CampaignID: campaign.ID, ContactID: contactB.ID, OrganizationID: orgID, Status: models.RecipientStatusPending},
		}
		result, err := repo.BulkInsertPending(ctx, rows)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Inserted)

		again := []*models.CampaignRecipient{
			{CampaignID: campaign.ID, ContactID: contactA.ID, OrganizationID: orgID, Status: models.RecipientStatusPending},
		}
		result, err = repo.BulkInsertPending(ctx, again)
		require.NoError(t, err)
		assert.Zero(t, result.Inserted)
		assert.Equal(t, 1, result.DuplicateSkipped)

		count, err := repo.CountByCampaign(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("MarkBouncedAndBouncedContactIDs", func(t *testing.T) {
		contact, err := fixtures.CreateTestContact(orgID)
		require.NoError(t, err)
		_, err = fixtures.CreateTestRecipient(campaign, contact, models.RecipientStatusSent)
		require.NoError(t, err)

		recipient, err := repo.MarkBounced(ctx, campaign.ID, contact.ID, orgID)
		require.NoError(t, err)
		require.NotNil(t, recipient)
		assert.Equal(t, models.RecipientStatusBounced, recipient.Status)
		assert.NotNil(t, recipient.BouncedAt)

		// A contact with no recipient row is a nil result, never a new row
		untargeted, err := fixtures.CreateTestContact(orgID)
		require.NoError(t, err)
		recipient, err = repo.MarkBounced(ctx, campaign.ID, untargeted.ID, orgID)
		require.NoError(t, err)
		assert.Nil(t, recipient)

		bounced, err := repo.BouncedContactIDs(ctx, orgID)
		require.NoError(t, err)
		assert.Contains(t, bounced, contact.ID)
	})

	t.Run("BulkMarkBounced", func(t *testing.T) {
		var contactIDs []uuid.UUID
		for i := 0; i < 3; i++ {
			contact, err := fixtures.CreateTestContact(orgID)
			require.NoError(t, err)
			contactIDs = append(contactIDs, contact.ID)
			if i < 2 {
				_, err = fixtures.CreateTestRecipient(campaign, contact, models.RecipientStatusSent)
				require.NoError(t, err)
			}
		}

		updated, err := repo.BulkMarkBounced(ctx, campaign.ID, contactIDs, orgID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated)
	})

	t.Run("MarkSentOnlyTouchesPending", func(t *testing.T) {
		contact, err := fixtures.CreateTestContact(orgID)
		require.NoError(t, err)
		pending, err := fixtures.CreateTestRecipient(campaign, contact, models.RecipientStatusPending)
		require.NoError(t, err)

		contact2, err := fixtures.CreateTestContact(orgID)
		require.NoError(t, err)
		delivered, err := fixtures.CreateTestRecipient(campaign, contact2, models.RecipientStatusDelivered)
		require.NoError(t, err)

		n, err := repo.MarkSent(ctx, []uuid.UUID{pending.ID, delivered.ID}, utils.UTCNow())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		found, err := repo.ByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RecipientStatusSent, found.Status)
		assert.NotNil(t, found.SentAt)
	})

	t.Run("AnalyticsCounts", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())
		campaign, err := fixtures.CreateTestCampaign(orgID, uuid.New(), models.CampaignStatusSent, nil)
		require.NoError(t, err)

		for _, status := range []models.RecipientStatus{
			models.RecipientStatusPending,
			models.RecipientStatusSent,
			models.RecipientStatusSent,
			models.RecipientStatusBounced,
		} {
			contact, err := fixtures.CreateTestContact(orgID)
			require.NoError(t, err)
			_, err = fixtures.CreateTestRecipient(campaign, contact, status)
			require.NoError(t, err)
		}

		counts, err := repo.AnalyticsCounts(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), counts.Total)
		assert.Equal(t, int64(1), counts.Pending)
		assert.Equal(t, int64(2), counts.Sent)
		assert.Equal(t, int64(1), counts.Bounced)
	})
}

func TestContactRepository(t *testing.T) {
	testDB := withTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	repo := repository.NewContactRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	orgID := uuid.New()

	t.Run("EligibleContactIDs", func(t *testing.T) {
		keep, err := fixtures.CreateTestContact(orgID)
		require.NoError(t, err)
		_, err = fixtures.CreateTestContactWith(orgID, nil, nil, true, true) // no email
		require.NoError(t, err)
		_, err = fixtures.CreateTestContactWith(orgID, utils.ToPtr("inactive@example.com"), nil, false, true)
		require.NoError(t, err)
		_, err = fixtures.CreateTestContactWith(orgID, utils.ToPtr("unsub@example.com"), nil, true, false)
		require.NoError(t, err)
		_, err = fixtures.CreateTestContactWith(orgID, utils.ToPtr("german@example.com"), utils.ToPtr(" DE "), true, true)
		require.NoError(t, err)

		filter := models.ContactFilter{
			OrganizationID:   &orgID,
			RequireEmail:     true,
			IsActive:         utils.ToPtr(true),
			IsSubscribed:     utils.ToPtr(true),
			ExcludeCountries: []string{"de"},
		}
		ids, err := repo.EligibleContactIDs(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{keep.ID}, ids)
	})

	t.Run("ByIDSkipsDeleted", func(t *testing.T) {
		contact, err := fixtures.CreateTestContact(orgID)
		require.NoError(t, err)

		require.NoError(t, testDB.DB.Model(&models.Contact{}).
			Where("id = ?", contact.ID).
			Update("deleted_at", utils.UTCNow()).Error)

		found, err := repo.ByID(ctx, contact.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
