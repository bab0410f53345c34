package tests

import (
	"testing"
	"time"

	"github.com/heraldhq/herald/models"
	"github.com/heraldhq/herald/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignStatus(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		for _, s := range []models.CampaignStatus{
			models.CampaignStatusDraft,
			models.CampaignStatusScheduled,
			models.CampaignStatusSending,
			models.CampaignStatusSent,
			models.CampaignStatusPaused,
		} {
			assert.True(t, s.Valid(), "expected %s to be valid", s)
		}
		assert.False(t, models.CampaignStatus("archived").Valid())
		assert.False(t, models.CampaignStatus("").Valid())
	})

	t.Run("Value", func(t *testing.T) {
		v, err := models.CampaignStatusDraft.Value()
		require.NoError(t, err)
		assert.Equal(t, "draft", v)

		_, err = models.CampaignStatus("bogus").Value()
		assert.Error(t, err)
	})

	t.Run("Scan", func(t *testing.T) {
		var s models.CampaignStatus
		require.NoError(t, s.Scan("scheduled"))
		assert.Equal(t, models.CampaignStatusScheduled, s)

		require.NoError(t, s.Scan([]byte("paused")))
		assert.Equal(t, models.CampaignStatusPaused, s)

		require.NoError(t, s.Scan(nil))
		assert.Equal(t, models.CampaignStatus(""), s)

		assert.Error(t, s.Scan(42))
	})
}

func TestCampaignTransitions(t *testing.T) {
	cases := []struct {
		from    models.CampaignStatus
		to      models.CampaignStatus
		allowed bool
	}{
		{models.CampaignStatusDraft, models.CampaignStatusScheduled, true},
		{models.CampaignStatusDraft, models.CampaignStatusPaused, true},
		{models.CampaignStatusDraft, models.CampaignStatusSending, false},
		{models.CampaignStatusDraft, models.CampaignStatusSent, false},
		{models.CampaignStatusScheduled, models.CampaignStatusDraft, true},
		{models.CampaignStatusScheduled, models.CampaignStatusSending, true},
		{models.CampaignStatusScheduled, models.CampaignStatusPaused, true},
		{models.CampaignStatusScheduled, models.CampaignStatusSent, false},
		{models.CampaignStatusPaused, models.CampaignStatusDraft, true},
		{models.CampaignStatusPaused, models.CampaignStatusScheduled, true},
		{models.CampaignStatusPaused, models.CampaignStatusSending, false},
		{models.CampaignStatusSending, models.CampaignStatusSent, true},
		{models.CampaignStatusSending, models.CampaignStatusDraft, false},
		{models.CampaignStatusSending, models.CampaignStatusPaused, false},
		{models.CampaignStatusSent, models.CampaignStatusDraft, false},
		{models.CampaignStatusSent, models.CampaignStatusScheduled, false},
		{models.CampaignStatusSent, models.CampaignStatusSending, false},
	}

	for _, tc := range cases {
		c := &models.Campaign{Status: tc.from}
		assert.Equal(t, tc.allowed, c.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCampaignIsEditable(t *testing.T) {
	editable := map[models.CampaignStatus]bool{
		models.CampaignStatusDraft:     true,
		models.CampaignStatusScheduled: true,
		models.CampaignStatusPaused:    true,
		models.CampaignStatusSending:   false,
		models.CampaignStatusSent:      false,
	}
	for status, want := range editable {
		c := &models.Campaign{Status: status}
		assert.Equal(t, want, c.IsEditable(), "status %s", status)
	}
}

func TestCampaignIsDue(t *testing.T) {
	now := utils.UTCNow()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("ScheduledInPast", func(t *testing.T) {
		c := &models.Campaign{Status: models.CampaignStatusScheduled, ScheduledAt: &past}
		assert.True(t, c.IsDue(now))
	})

	t.Run("ScheduledExactlyNow", func(t *testing.T) {
		c := &models.Campaign{Status: models.CampaignStatusScheduled, ScheduledAt: &now}
		assert.True(t, c.IsDue(now))
	})

	t.Run("ScheduledInFuture", func(t *testing.T) {
		c := &models.Campaign{Status: models.CampaignStatusScheduled, ScheduledAt: &future}
		assert.False(t, c.IsDue(now))
	})

	t.Run("NoScheduleTime", func(t *testing.T) {
		c := &models.Campaign{Status: models.CampaignStatusScheduled}
		assert.False(t, c.IsDue(now))
	})

	t.Run("WrongStatus", func(t *testing.T) {
		for _, status := range []models.CampaignStatus{
			models.CampaignStatusDraft,
			models.CampaignStatusPaused,
			models.CampaignStatusSending,
			models.CampaignStatusSent,
		} {
			c := &models.Campaign{Status: status, ScheduledAt: &past}
			assert.False(t, c.IsDue(now), "status %s", status)
		}
	})
}

func TestRecipientStatus(t *testing.T) {
	for _, s := range []models.RecipientStatus{
		models.RecipientStatusPending,
		models.RecipientStatusSent,
		models.RecipientStatusDelivered,
		models.RecipientStatusBounced,
		models.RecipientStatusOpened,
		models.RecipientStatusClicked,
	} {
		assert.True(t, s.Valid(), "expected %s to be valid", s)
	}
	assert.False(t, models.RecipientStatus("queued").Valid())

	_, err := models.RecipientStatus("queued").Value()
	assert.Error(t, err)
}

func TestTargetRuleEffective(t *testing.T) {
	t.Run("NilRuleUsesDefaults", func(t *testing.T) {
		var rule *models.CampaignTargetRule
		eff := rule.Effective()
		assert.True(t, eff.ExcludeUnsubscribed)
		assert.True(t, eff.ExcludeInactive)
		assert.False(t, eff.ExcludeBounced)
		assert.Empty(t, eff.ExcludeCountries)
	})

	t.Run("UnsetBooleansFallBack", func(t *testing.T) {
		rule := &models.CampaignTargetRule{}
		eff := rule.Effective()
		assert.Equal(t, models.DefaultTargetRules().ExcludeUnsubscribed, eff.ExcludeUnsubscribed)
		assert.Equal(t, models.DefaultTargetRules().ExcludeInactive, eff.ExcludeInactive)
		assert.Equal(t, models.DefaultTargetRules().ExcludeBounced, eff.ExcludeBounced)
	})

	t.Run("ExplicitValuesWin", func(t *testing.T) {
		rule := &models.CampaignTargetRule{
			ExcludeUnsubscribed: utils.ToPtr(false),
			ExcludeInactive:     utils.ToPtr(false),
			ExcludeBounced:      utils.ToPtr(true),
		}
		eff := rule.Effective()
		assert.False(t, eff.ExcludeUnsubscribed)
		assert.False(t, eff.ExcludeInactive)
		assert.True(t, eff.ExcludeBounced)
	})

	t.Run("CountriesNormalized", func(t *testing.T) {
		rule := &models.CampaignTargetRule{
			ExcludeCountries: []string{" DE ", "fr", ""},
		}
		eff := rule.Effective()
		assert.Equal(t, []string{"de", "fr"}, eff.ExcludeCountries)
	})
}

func TestNormalizeCountryCodes(t *testing.T) {
	assert.Equal(t, []string{"us", "gb"}, models.NormalizeCountryCodes([]string{"US", " gb "}))
	assert.Nil(t, models.NormalizeCountryCodes([]string{"", "  "}))
	assert.Nil(t, models.NormalizeCountryCodes(nil))
}
