package repository

import (
	"context"
	"errors"

	"github.com/heraldhq/herald/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactRepositoryImpl implements the ContactRepository interface
type ContactRepositoryImpl struct {
	DB *gorm.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &ContactRepositoryImpl{DB: db}
}

func (r *ContactRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.DB
}

// ByID retrieves a contact by ID, nil when absent or soft-deleted
func (r *ContactRepositoryImpl) ByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	db := r.getDB(ctx)

	var contact models.Contact
	err := db.Where("id = ? AND deleted_at IS NULL", id).First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &contact, nil
}

// EligibleContactIDs returns IDs of contacts matching the filter. Country
// comparison is done case-insensitively against the already-normalized
// exclusion list; contacts without a country are never excluded by it.
func (r *ContactRepositoryImpl) EligibleContactIDs(ctx context.Context, filter models.ContactFilter) ([]uuid.UUID, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Contact{}).Where("deleted_at IS NULL")

	if filter.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.RequireEmail {
		query = query.Where("email IS NOT NULL AND email <> ''")
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsSubscribed != nil {
		query = query.Where("is_subscribed = ?", *filter.IsSubscribed)
	}
	if len(filter.ExcludeCountries) > 0 {
		query = query.Where("(country IS NULL OR LOWER(TRIM(country)) NOT IN ?)", filter.ExcludeCountries)
	}

	var ids []uuid.UUID
	err := query.Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// ByIDs retrieves contacts by their IDs
func (r *ContactRepositoryImpl) ByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)

	var contacts []*models.Contact
	err := db.Where("id IN ? AND deleted_at IS NULL", ids).Find(&contacts).Error
	if err != nil {
		return nil, err
	}

	return contacts, nil
}
