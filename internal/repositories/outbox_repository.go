package repositories

import (
	"errors"
	"time"

	"dial2tech_backend/internal/models"

	"gorm.io/gorm"
)

type OutboxRepository interface {
	// Enqueue inserts a dispatch record. A duplicate idempotency key is
	// swallowed: the dispatch is already queued or delivered.
	Enqueue(dispatch *models.DispatchOutbox) error

	// ClaimPending returns up to limit pending dispatches, oldest first.
	ClaimPending(limit int) ([]models.DispatchOutbox, error)

	MarkSent(id string) error
	MarkFailed(id string, attempt int, lastErr string, terminal bool) error

	CountPending() (int64, error)
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Enqueue(dispatch *models.DispatchOutbox) error {
	err := r.db.Create(dispatch).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func (r *outboxRepository) ClaimPending(limit int) ([]models.DispatchOutbox, error) {
	var dispatches []models.DispatchOutbox
	err := r.db.
		Where("status = ?", models.DispatchStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&dispatches).Error
	return dispatches, err
}

func (r *outboxRepository) MarkSent(id string) error {
	now := time.Now()
	return r.db.Model(&models.DispatchOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   models.DispatchStatusSent,
			"sent_at":  &now,
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
}

func (r *outboxRepository) MarkFailed(id string, attempt int, lastErr string, terminal bool) error {
	status := models.DispatchStatusPending
	if terminal {
		status = models.DispatchStatusFailed
	}
	return r.db.Model(&models.DispatchOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"attempts":   attempt,
			"last_error": &lastErr,
		}).Error
}

func (r *outboxRepository) CountPending() (int64, error) {
	var count int64
	err := r.db.Model(&models.DispatchOutbox{}).
		Where("status = ?", models.DispatchStatusPending).
		Count(&count).Error
	return count, err
}
