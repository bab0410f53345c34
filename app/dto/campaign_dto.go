package dto

// CreateCampaignRequest represents a campaign creation payload
type CreateCampaignRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=draft scheduled paused"`
	ScheduledAt *string `json:"scheduled_at,omitempty" validate:"omitempty"`
}

// UpdateCampaignRequest represents a partial campaign update payload
type UpdateCampaignRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=draft scheduled paused"`
	ScheduledAt *string `json:"scheduled_at,omitempty" validate:"omitempty"`
}

// CampaignDTO is the API representation of a campaign
type CampaignDTO struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	ScheduledAt    string `json:"scheduled_at,omitempty"`
	SentAt         string `json:"sent_at,omitempty"`
	CreatedBy      string `json:"created_by"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at,omitempty"`
	RecipientCount *int64 `json:"recipient_count,omitempty"`
}

// ListCampaignsRequest represents campaign listing query parameters
type ListCampaignsRequest struct {
	Page     int     `json:"page" validate:"omitempty,min=1"`
	PageSize int     `json:"page_size" validate:"omitempty,min=1,max=100"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=draft scheduled sending sent paused"`
}

// ListCampaignsResponse wraps a page of campaigns
type ListCampaignsResponse struct {
	Items      []CampaignDTO `json:"items"`
	Pagination PaginationDTO `json:"pagination"`
}

// TargetRuleDTO is the API representation of a campaign's targeting rules
type TargetRuleDTO struct {
	CampaignID          string   `json:"campaign_id,omitempty"`
	IncludeTags         []string `json:"include_tags"`
	ExcludeTags         []string `json:"exclude_tags"`
	ExcludeCountries    []string `json:"exclude_countries"`
	ExcludeUnsubscribed bool     `json:"exclude_unsubscribed"`
	ExcludeInactive     bool     `json:"exclude_inactive"`
	ExcludeBounced      bool     `json:"exclude_bounced"`
}

// UpdateTargetRuleRequest represents a target rule replacement payload
type UpdateTargetRuleRequest struct {
	IncludeTags         []string `json:"include_tags" validate:"omitempty,dive,min=1"`
	ExcludeTags         []string `json:"exclude_tags" validate:"omitempty,dive,min=1"`
	ExcludeCountries    []string `json:"exclude_countries" validate:"omitempty,dive,min=2,max=2"`
	ExcludeUnsubscribed *bool    `json:"exclude_unsubscribed,omitempty"`
	ExcludeInactive     *bool    `json:"exclude_inactive,omitempty"`
	ExcludeBounced      *bool    `json:"exclude_bounced,omitempty"`
}

// RecipientDTO is the API representation of a campaign recipient
type RecipientDTO struct {
	ID         string `json:"id"`
	CampaignID string `json:"campaign_id"`
	ContactID  string `json:"contact_id"`
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Country    string `json:"country,omitempty"`
	Status     string `json:"status"`
	SentAt     string `json:"sent_at,omitempty"`
	BouncedAt  string `json:"bounced_at,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ListRecipientsRequest represents recipient listing query parameters
type ListRecipientsRequest struct {
	Page     int     `json:"page" validate:"omitempty,min=1"`
	PageSize int     `json:"page_size" validate:"omitempty,min=1,max=100"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=pending sent delivered bounced opened clicked"`
}

// ListRecipientsResponse wraps a page of recipients
type ListRecipientsResponse struct {
	Items      []RecipientDTO `json:"items"`
	Pagination PaginationDTO  `json:"pagination"`
}

// GenerateRecipientsResponse reports the outcome of a recipient generation run
type GenerateRecipientsResponse struct {
	CampaignID     string `json:"campaign_id"`
	TotalContacts  int    `json:"total_contacts"`
	AddedCount     int    `json:"added_count"`
	SkippedCount   int    `json:"skipped_count"`
	RecipientCount int64  `json:"recipient_count"`
}

// CampaignAnalyticsDTO reports aggregate delivery metrics for a campaign
type CampaignAnalyticsDTO struct {
	CampaignID   string  `json:"campaign_id"`
	Status       string  `json:"status"`
	Total        int64   `json:"total"`
	Pending      int64   `json:"pending"`
	Sent         int64   `json:"sent"`
	Delivered    int64   `json:"delivered"`
	Opened       int64   `json:"opened"`
	Clicked      int64   `json:"clicked"`
	Bounced      int64   `json:"bounced"`
	OpenRate     float64 `json:"open_rate"`
	ClickRate    float64 `json:"click_rate"`
	BounceRate   float64 `json:"bounce_rate"`
	DeliveryRate float64 `json:"delivery_rate"`
}

// RecordBounceRequest represents an inbound bounce notification. A single
// contact or a batch of contacts may be flagged against one campaign.
type RecordBounceRequest struct {
	OrganizationID string   `json:"organization_id" validate:"required,uuid4"`
	CampaignID     string   `json:"campaign_id" validate:"required,uuid4"`
	ContactID      string   `json:"contact_id,omitempty" validate:"required_without=ContactIDs,omitempty,uuid4"`
	ContactIDs     []string `json:"contact_ids,omitempty" validate:"required_without=ContactID,omitempty,dive,uuid4"`
}

// RecordBounceResponse reports how many recipient rows a bounce touched
type RecordBounceResponse struct {
	CampaignID  string `json:"campaign_id"`
	RowsUpdated int64  `json:"rows_updated"`
}
