// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Campaign-related errors
	ErrCampaignNotFound         = errors.New("campaign not found")
	ErrCampaignNameRequired     = errors.New("campaign name is required")
	ErrCampaignUpdateNotAllowed = errors.New("campaign update not allowed")
	ErrInvalidCampaignStatus    = errors.New("invalid campaign status")
	ErrInvalidStatusTransition  = errors.New("invalid campaign status transition")
	ErrScheduleTimeRequired     = errors.New("schedule time is required")
	ErrScheduleTimeInPast       = errors.New("schedule time must be in the future")
	ErrScheduleTimeInvalid      = errors.New("schedule time is invalid")

	// Scope errors
	ErrOrganizationIDRequired = errors.New("organization ID is required")
	ErrContactNotFound        = errors.New("contact not found")
	ErrRecipientNotFound      = errors.New("recipient not found")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignNameRequired(err error) bool {
	return errors.Is(err, ErrCampaignNameRequired)
}

func IsCampaignUpdateNotAllowed(err error) bool {
	return errors.Is(err, ErrCampaignUpdateNotAllowed)
}

func IsInvalidCampaignStatus(err error) bool {
	return errors.Is(err, ErrInvalidCampaignStatus)
}

func IsInvalidStatusTransition(err error) bool {
	return errors.Is(err, ErrInvalidStatusTransition)
}

func IsScheduleTimeRequired(err error) bool {
	return errors.Is(err, ErrScheduleTimeRequired)
}

func IsScheduleTimeInPast(err error) bool {
	return errors.Is(err, ErrScheduleTimeInPast)
}

func IsScheduleTimeInvalid(err error) bool {
	return errors.Is(err, ErrScheduleTimeInvalid)
}

func IsOrganizationIDRequired(err error) bool {
	return errors.Is(err, ErrOrganizationIDRequired)
}

func IsContactNotFound(err error) bool {
	return errors.Is(err, ErrContactNotFound)
}

func IsRecipientNotFound(err error) bool {
	return errors.Is(err, ErrRecipientNotFound)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
