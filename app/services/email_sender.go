// Package services provides external service integrations
package services

import (
	"context"
	"log"
)

// EmailMessage is a single outbound campaign email
type EmailMessage struct {
	To           string
	CampaignID   string
	CampaignName string
}

// EmailSender delivers campaign emails through a provider
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// MockEmailSender logs sends instead of delivering them.
// Used in development and anywhere no provider is configured.
type MockEmailSender struct{}

// NewMockEmailSender creates a mock email sender
func NewMockEmailSender() EmailSender {
	return &MockEmailSender{}
}

// Send logs the message and reports success
func (s *MockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	log.Printf("mock email sender: campaign=%s to=%s", msg.CampaignID, msg.To)
	return nil
}
