package dto

// AutomationCampaignResult describes what happened to one campaign during a run
type AutomationCampaignResult struct {
	CampaignID     string `json:"campaign_id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	RecipientCount int64  `json:"recipient_count"`
	Generated      bool   `json:"generated"`
	Skipped        bool   `json:"skipped"`
	SkipReason     string `json:"skip_reason,omitempty"`
	Error          string `json:"error,omitempty"`
}

// RunAutomationResponse summarizes an automation run
type RunAutomationResponse struct {
	DueCount  int                        `json:"due_count"`
	Processed int                        `json:"processed"`
	Failed    int                        `json:"failed"`
	Campaigns []AutomationCampaignResult `json:"campaigns"`
	RanAt     string                     `json:"ran_at"`
}
