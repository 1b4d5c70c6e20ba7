package repositories

import (
	"errors"

	"dial2tech_backend/internal/models"

	"gorm.io/gorm"
)

var ErrQuoteNotFound = errors.New("quote not found")

type QuoteRepository interface {
	Create(quote *models.TechnicianQuote) error
	FindByID(id string) (*models.TechnicianQuote, error)
	ListByEnquiry(enquiryID string) ([]models.TechnicianQuote, error)

	// LatestAccepted returns the newest accepted quote for an enquiry; this
	// is the record reconciliation bills against.
	LatestAccepted(enquiryID string) (*models.TechnicianQuote, error)
}

type quoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) Create(quote *models.TechnicianQuote) error {
	return r.db.Create(quote).Error
}

func (r *quoteRepository) FindByID(id string) (*models.TechnicianQuote, error) {
	var q models.TechnicianQuote
	if err := r.db.First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *quoteRepository) ListByEnquiry(enquiryID string) ([]models.TechnicianQuote, error) {
	var quotes []models.TechnicianQuote
	err := r.db.Where("enquiry_id = ?", enquiryID).Order("created_at ASC").Find(&quotes).Error
	return quotes, err
}

func (r *quoteRepository) LatestAccepted(enquiryID string) (*models.TechnicianQuote, error) {
	var q models.TechnicianQuote
	err := r.db.
		Where("enquiry_id = ? AND status = ?", enquiryID, models.QuoteStatusAccepted).
		Order("created_at DESC").
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, err
	}
	return &q, nil
}
