package repositories

import (
	"dial2tech_backend/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(payment *models.Payment) error
	ListByEnquiry(enquiryID string) ([]models.Payment, error)

	// SumSuccessful totals the amounts of successful payments for an
	// enquiry.
	SumSuccessful(enquiryID string) (float64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *paymentRepository) ListByEnquiry(enquiryID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("enquiry_id = ?", enquiryID).Order("created_at ASC").Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) SumSuccessful(enquiryID string) (float64, error) {
	var total float64
	err := r.db.Model(&models.Payment{}).
		Where("enquiry_id = ? AND status = ?", enquiryID, models.PaymentStatusSuccess).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
