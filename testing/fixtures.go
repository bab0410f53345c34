package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/heraldhq/herald/models"
	"github.com/heraldhq/herald/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestContact creates an active, subscribed contact in the given organization
func (tf *TestFixtures) CreateTestContact(organizationID uuid.UUID) (*models.Contact, error) {
	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	contact := &models.Contact{
		OrganizationID: organizationID,
		Email:          utils.ToPtr(fmt.Sprintf("jane.doe.%s@example.com", randomDigits)),
		FirstName:      utils.ToPtr("Jane"),
		LastName:       utils.ToPtr("Doe"),
		Country:        utils.ToPtr("us"),
		IsActive:       true,
		IsSubscribed:   true,
		CreatedAt:      utils.UTCNow(),
		UpdatedAt:      utils.UTCNowPtr(),
	}
	if err := tf.DB.DB.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contact: %w", err)
	}
	return contact, nil
}

// CreateTestContactWith creates a contact with the given attributes. Pass a nil
// email to create a contact without an address.
func (tf *TestFixtures) CreateTestContactWith(organizationID uuid.UUID, email, country *string, active, subscribed bool) (*models.Contact, error) {
	contact := &models.Contact{
		OrganizationID: organizationID,
		Email:          email,
		Country:        country,
		IsActive:       active,
		IsSubscribed:   subscribed,
		CreatedAt:      utils.UTCNow(),
		UpdatedAt:      utils.UTCNowPtr(),
	}
	if err := tf.DB.DB.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contact: %w", err)
	}
	return contact, nil
}

// CreateTestCampaign creates a campaign in the given status
func (tf *TestFixtures) CreateTestCampaign(organizationID, createdBy uuid.UUID, status models.CampaignStatus, scheduledAt *time.Time) (*models.Campaign, error) {
	campaign := &models.Campaign{
		OrganizationID: organizationID,
		Name:           fmt.Sprintf("Test Campaign %d", rand.Intn(100000)),
		Status:         status,
		ScheduledAt:    scheduledAt,
		CreatedBy:      createdBy,
		CreatedAt:      utils.UTCNow(),
		UpdatedAt:      utils.UTCNowPtr(),
	}
	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}
	return campaign, nil
}

// CreateTestTargetRule creates a target rule row for the campaign
func (tf *TestFixtures) CreateTestTargetRule(campaign *models.Campaign, rule *models.CampaignTargetRule) (*models.CampaignTargetRule, error) {
	if rule == nil {
		rule = &models.CampaignTargetRule{}
	}
	rule.CampaignID = campaign.ID
	rule.OrganizationID = campaign.OrganizationID
	rule.CreatedAt = utils.UTCNow()
	rule.UpdatedAt = utils.UTCNowPtr()
	if err := tf.DB.DB.Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create test target rule: %w", err)
	}
	return rule, nil
}

// CreateTestRecipient creates a recipient row linking the campaign and contact
func (tf *TestFixtures) CreateTestRecipient(campaign *models.Campaign, contact *models.Contact, status models.RecipientStatus) (*models.CampaignRecipient, error) {
	recipient := &models.CampaignRecipient{
		CampaignID:     campaign.ID,
		ContactID:      contact.ID,
		OrganizationID: campaign.OrganizationID,
		Status:         status,
		CreatedAt:      utils.UTCNow(),
	}
	if status == models.RecipientStatusBounced {
		recipient.BouncedAt = utils.UTCNowPtr()
	}
	if err := tf.DB.DB.Create(recipient).Error; err != nil {
		return nil, fmt.Errorf("failed to create test recipient: %w", err)
	}
	return recipient, nil
}
