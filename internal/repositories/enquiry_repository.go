package repositories

import (
	"errors"
	"time"

	"dial2tech_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEnquiryNotFound = errors.New("enquiry not found")

	// ErrVersionConflict means the CAS condition failed: the enquiry row
	// changed between the caller's read and this write.
	ErrVersionConflict = errors.New("enquiry version conflict")
)

// TransitionChange is everything one lifecycle transition writes. The whole
// change commits in a single transaction so a crash can never leave a status
// updated with its notifications lost.
type TransitionChange struct {
	// Enquiry to update via compare-and-swap; nil when the transition does
	// not touch enquiry state (a quote send leaves status unchanged).
	Enquiry         *models.Enquiry
	ExpectedVersion int

	// NewQuote is created, QuoteUpdate saved, when set.
	NewQuote    *models.TechnicianQuote
	QuoteUpdate *models.TechnicianQuote

	Notifications []*models.Notification
	Dispatches    []*models.DispatchOutbox
}

type EnquiryRepository interface {
	Create(enquiry *models.Enquiry) error
	FindByID(id string) (*models.Enquiry, error)
	ListByCustomer(customerID string) ([]models.Enquiry, error)
	ListByTechnician(technicianID string) ([]models.Enquiry, error)
	List(status models.EnquiryStatus) ([]models.Enquiry, error)

	// ApplyTransition commits a TransitionChange atomically. Returns
	// ErrVersionConflict when the enquiry's version moved underneath the
	// caller.
	ApplyTransition(change *TransitionChange) error
}

type enquiryRepository struct {
	db *gorm.DB
}

func NewEnquiryRepository(db *gorm.DB) EnquiryRepository {
	return &enquiryRepository{db: db}
}

func (r *enquiryRepository) Create(enquiry *models.Enquiry) error {
	return r.db.Create(enquiry).Error
}

func (r *enquiryRepository) FindByID(id string) (*models.Enquiry, error) {
	var e models.Enquiry
	if err := r.db.First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnquiryNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *enquiryRepository) ListByCustomer(customerID string) ([]models.Enquiry, error) {
	var enquiries []models.Enquiry
	err := r.db.Where("customer_id = ?", customerID).Order("created_at DESC").Find(&enquiries).Error
	return enquiries, err
}

func (r *enquiryRepository) ListByTechnician(technicianID string) ([]models.Enquiry, error) {
	var enquiries []models.Enquiry
	err := r.db.Where("assigned_technician_id = ?", technicianID).Order("created_at DESC").Find(&enquiries).Error
	return enquiries, err
}

func (r *enquiryRepository) List(status models.EnquiryStatus) ([]models.Enquiry, error) {
	var enquiries []models.Enquiry
	q := r.db.Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&enquiries).Error
	return enquiries, err
}

func (r *enquiryRepository) ApplyTransition(change *TransitionChange) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if change.Enquiry != nil {
			e := change.Enquiry
			res := tx.Model(&models.Enquiry{}).
				Where("id = ? AND version = ?", e.ID, change.ExpectedVersion).
				Updates(map[string]interface{}{
					"status":                 e.Status,
					"assigned_technician_id": e.AssignedTechnicianID,
					"drop_reason":            e.DropReason,
					"version":                change.ExpectedVersion + 1,
					"updated_at":             time.Now(),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Either the row is gone or someone else won the write.
				var count int64
				if err := tx.Model(&models.Enquiry{}).Where("id = ?", e.ID).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return ErrEnquiryNotFound
				}
				return ErrVersionConflict
			}
			e.Version = change.ExpectedVersion + 1
		}

		if change.NewQuote != nil {
			if err := tx.Create(change.NewQuote).Error; err != nil {
				return err
			}
		}
		if change.QuoteUpdate != nil {
			if err := tx.Save(change.QuoteUpdate).Error; err != nil {
				return err
			}
		}

		for _, n := range change.Notifications {
			if err := tx.Create(n).Error; err != nil {
				return err
			}
		}
		// A replayed transition can carry a dispatch whose idempotency key
		// is already enqueued. Skipping the duplicate here keeps the
		// conflict from aborting the whole transaction.
		for _, d := range change.Dispatches {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "idempotency_key"}},
				DoNothing: true,
			}).Create(d).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
}
