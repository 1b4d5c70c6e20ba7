package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"dial2tech_backend/internal/billing"
	"dial2tech_backend/internal/email"
	"dial2tech_backend/internal/logger"
	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/repositories"
	"dial2tech_backend/internal/services/dto"
	"dial2tech_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

// Lifecycle event names. They double as the transition part of dispatch
// idempotency keys.
const (
	EventQuoteSent          = "quote_sent"
	EventTechnicianAssigned = "technician_assigned"
	EventQuoteAccepted      = "quote_accepted"
	EventQuoteRejected      = "quote_rejected"
	EventEnquiryCompleted   = "enquiry_completed"
	EventEnquiryDropped     = "enquiry_dropped"
)

// EnquiryService owns the enquiry lifecycle: every status move is validated
// against the transition table, written with compare-and-swap on the version
// column, and committed atomically with its notification and dispatch
// records.
type EnquiryService struct {
	enquiryRepo      repositories.EnquiryRepository
	quoteRepo        repositories.QuoteRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	renderer         email.TemplateRenderer
}

func NewEnquiryService(
	enquiryRepo repositories.EnquiryRepository,
	quoteRepo repositories.QuoteRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	renderer email.TemplateRenderer,
) *EnquiryService {
	return &EnquiryService{
		enquiryRepo:      enquiryRepo,
		quoteRepo:        quoteRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		renderer:         renderer,
	}
}

// Submit creates a new pending enquiry for a customer.
func (s *EnquiryService) Submit(customerID string, req *dto.CreateEnquiryRequest) (*models.Enquiry, error) {
	customer, err := s.userRepo.FindByID(customerID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if customer.Role != models.UserRoleCustomer {
		return nil, apperrors.ErrInsufficientPermissions
	}

	enquiry := &models.Enquiry{
		CustomerID:         customerID,
		ProblemDescription: req.ProblemDescription,
		Domain:             req.Domain,
		FieldOfCategory:    req.FieldOfCategory,
		HardwareUsed:       req.HardwareUsed,
		SoftwareUsed:       req.SoftwareUsed,
		Status:             models.EnquiryStatusPending,
		Version:            1,
	}

	if err := s.enquiryRepo.Create(enquiry); err != nil {
		return nil, err
	}
	return enquiry, nil
}

// SendQuote attaches a quote attempt to an enquiry on behalf of a
// technician. The enquiry status is unchanged; the technician is notified by
// push and email.
func (s *EnquiryService) SendQuote(enquiryID string, req *dto.SendQuoteRequest) (*models.TechnicianQuote, error) {
	enquiry, err := s.enquiryRepo.FindByID(enquiryID)
	if err != nil {
		return nil, s.mapEnquiryErr(err)
	}
	if enquiry.Status.IsTerminal() {
		return nil, apperrors.ErrEnquiryTerminal
	}

	technician, err := s.findAssignableTechnician(req.TechnicianID, enquiry.FieldOfCategory)
	if err != nil {
		return nil, err
	}

	q := billing.ComputeQuote(req.ApproxTimeHours, req.BudgetPerHour)
	quote := &models.TechnicianQuote{
		EnquiryID:        enquiry.ID,
		TechnicianID:     technician.ID,
		ApproxTimeHours:  req.ApproxTimeHours,
		BudgetPerHour:    req.BudgetPerHour,
		EstimatedCost:    q.EstimatedCost,
		TotalBillingCost: q.TotalBillingCost,
		Status:           models.QuoteStatusPending,
	}

	// Attempt ordinal makes quote dispatch keys distinct per quote record.
	prior, err := s.quoteRepo.ListByEnquiry(enquiry.ID)
	if err != nil {
		return nil, err
	}
	attempt := len(prior) + 1

	message := fmt.Sprintf("New quotation of ₹%.2f for enquiry %s", q.TotalBillingCost, enquiry.ID)
	emailBody := s.renderBody("quotation", email.TemplateData{
		"TechnicianName":   technician.Name,
		"EnquiryID":        enquiry.ID,
		"Problem":          enquiry.ProblemDescription,
		"EstimatedCost":    fmt.Sprintf("%.2f", q.EstimatedCost),
		"TotalBillingCost": fmt.Sprintf("%.2f", q.TotalBillingCost),
	}, message)
	change := &repositories.TransitionChange{
		NewQuote: quote,
		Notifications: []*models.Notification{
			s.buildNotification(technician, repositories.NotificationTypeQuoteSent, message, enquiry.ID),
		},
		Dispatches: s.buildDispatches(enquiry.ID, EventQuoteSent, attempt, technician,
			"New quotation on Dial2Tech", emailBody, message),
	}

	if err := s.enquiryRepo.ApplyTransition(change); err != nil {
		return nil, s.mapEnquiryErr(err)
	}

	logger.Info("quote sent", "enquiry_id", enquiry.ID, "technician_id", technician.ID,
		"estimated_cost", q.EstimatedCost, "total_billing_cost", q.TotalBillingCost)
	return quote, nil
}

// AssignTechnician assigns an approved, category-matched technician and
// moves the enquiry to in_process.
func (s *EnquiryService) AssignTechnician(enquiryID, technicianID string) error {
	enquiry, err := s.enquiryRepo.FindByID(enquiryID)
	if err != nil {
		return s.mapEnquiryErr(err)
	}
	if err := s.checkTransition(enquiry, models.EnquiryStatusInProcess); err != nil {
		return err
	}

	technician, err := s.findAssignableTechnician(technicianID, enquiry.FieldOfCategory)
	if err != nil {
		return err
	}

	expected := enquiry.Version
	enquiry.AssignedTechnicianID = &technician.ID
	enquiry.Status = models.EnquiryStatusInProcess

	message := fmt.Sprintf("You have been assigned enquiry %s", enquiry.ID)
	emailBody := s.renderBody("assignment", email.TemplateData{
		"TechnicianName": technician.Name,
		"EnquiryID":      enquiry.ID,
		"Problem":        enquiry.ProblemDescription,
	}, message)
	change := &repositories.TransitionChange{
		Enquiry:         enquiry,
		ExpectedVersion: expected,
		Notifications: []*models.Notification{
			s.buildNotification(technician, repositories.NotificationTypeTechnicianAssigned, message, enquiry.ID),
		},
		Dispatches: s.buildDispatches(enquiry.ID, EventTechnicianAssigned, expected, technician,
			"Enquiry assigned to you", emailBody, message),
	}

	if err := s.enquiryRepo.ApplyTransition(change); err != nil {
		return s.mapEnquiryErr(err)
	}

	logger.TransitionLog(enquiry.ID, string(models.EnquiryStatusPending), string(enquiry.Status), technician.ID)
	return nil
}

// AcceptQuote is the technician's acceptance of a pending quote. The enquiry
// moves to in_process (a no-op move when already there) and the admins are
// notified.
func (s *EnquiryService) AcceptQuote(technicianID, quoteID string) error {
	quote, enquiry, err := s.loadPendingQuote(technicianID, quoteID)
	if err != nil {
		return err
	}
	technician, err := s.userRepo.FindByID(technicianID)
	if err != nil {
		return apperrors.ErrNotFound(err)
	}

	expected := enquiry.Version
	from := enquiry.Status
	if enquiry.Status == models.EnquiryStatusPending {
		enquiry.Status = models.EnquiryStatusInProcess
	}
	enquiry.AssignedTechnicianID = &quote.TechnicianID
	quote.Status = models.QuoteStatusAccepted

	message := fmt.Sprintf("Technician accepted the quote for enquiry %s (billed ₹%.2f)",
		enquiry.ID, quote.TotalBillingCost)
	emailBody := s.renderBody("quote_resolution", email.TemplateData{
		"TechnicianName": technician.Name,
		"Action":         "accepted",
		"EnquiryID":      enquiry.ID,
	}, message)

	change := &repositories.TransitionChange{
		Enquiry:         enquiry,
		ExpectedVersion: expected,
		QuoteUpdate:     quote,
	}
	if err := s.addAdminAlerts(change, enquiry.ID, EventQuoteAccepted, expected,
		repositories.NotificationTypeQuoteAccepted, "Quote accepted", emailBody, message); err != nil {
		return err
	}

	if err := s.enquiryRepo.ApplyTransition(change); err != nil {
		return s.mapEnquiryErr(err)
	}

	logger.TransitionLog(enquiry.ID, string(from), string(enquiry.Status), technicianID)
	return nil
}

// RejectQuote is the technician's rejection. The enquiry is dropped; exactly
// one admin notification is emitted per rejection event, a repeated call
// fails on the already-resolved quote.
func (s *EnquiryService) RejectQuote(technicianID, quoteID, reason string) error {
	quote, enquiry, err := s.loadPendingQuote(technicianID, quoteID)
	if err != nil {
		return err
	}
	technician, err := s.userRepo.FindByID(technicianID)
	if err != nil {
		return apperrors.ErrNotFound(err)
	}
	if err := s.checkTransition(enquiry, models.EnquiryStatusDropped); err != nil {
		return err
	}

	expected := enquiry.Version
	from := enquiry.Status
	enquiry.Status = models.EnquiryStatusDropped
	enquiry.DropReason = &reason
	quote.Status = models.QuoteStatusRejected
	quote.RejectReason = &reason

	message := fmt.Sprintf("Technician rejected the quote for enquiry %s: %s", enquiry.ID, reason)
	emailBody := s.renderBody("quote_resolution", email.TemplateData{
		"TechnicianName": technician.Name,
		"Action":         "rejected",
		"EnquiryID":      enquiry.ID,
		"Reason":         reason,
	}, message)

	change := &repositories.TransitionChange{
		Enquiry:         enquiry,
		ExpectedVersion: expected,
		QuoteUpdate:     quote,
	}
	if err := s.addAdminAlerts(change, enquiry.ID, EventQuoteRejected, expected,
		repositories.NotificationTypeQuoteRejected, "Quote rejected", emailBody, message); err != nil {
		return err
	}

	if err := s.enquiryRepo.ApplyTransition(change); err != nil {
		return s.mapEnquiryErr(err)
	}

	logger.TransitionLog(enquiry.ID, string(from), string(enquiry.Status), technicianID)
	return nil
}

// CompleteByTechnician closes out the work. Worked hours are derived from
// the start/end timestamps and the governing quote's money figures are
// recomputed from them before the enquiry goes to completed.
func (s *EnquiryService) CompleteByTechnician(technicianID, enquiryID string, req *dto.CompleteEnquiryRequest) error {
	enquiry, err := s.enquiryRepo.FindByID(enquiryID)
	if err != nil {
		return s.mapEnquiryErr(err)
	}
	if enquiry.AssignedTechnicianID == nil || *enquiry.AssignedTechnicianID != technicianID {
		return apperrors.ErrInsufficientPermissions
	}
	if err := s.checkTransition(enquiry, models.EnquiryStatusCompleted); err != nil {
		return err
	}
	if req.WorkEndedAt.Before(req.WorkStartedAt) {
		return apperrors.NewBadRequestError("work end time is before start time")
	}

	quote, err := s.quoteRepo.LatestAccepted(enquiry.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrQuoteNotFound) {
			return apperrors.ErrNoAcceptedQuote
		}
		return err
	}

	workedHours := billing.HoursBetween(req.WorkStartedAt, req.WorkEndedAt)
	recomputed := billing.ComputeQuote(workedHours, quote.BudgetPerHour)

	start, end := req.WorkStartedAt, req.WorkEndedAt
	quote.WorkStartedAt = &start
	quote.WorkEndedAt = &end
	quote.WorkedHours = &workedHours
	quote.EstimatedCost = recomputed.EstimatedCost
	quote.TotalBillingCost = recomputed.TotalBillingCost

	expected := enquiry.Version
	from := enquiry.Status
	enquiry.Status = models.EnquiryStatusCompleted

	message := fmt.Sprintf("Enquiry %s completed: %.2f worked hours, billed ₹%.2f",
		enquiry.ID, workedHours, quote.TotalBillingCost)
	emailBody := s.renderBody("completion", email.TemplateData{
		"EnquiryID":        enquiry.ID,
		"WorkedHours":      fmt.Sprintf("%.2f", workedHours),
		"TotalBillingCost": fmt.Sprintf("%.2f", quote.TotalBillingCost),
	}, message)

	change := &repositories.TransitionChange{
		Enquiry:         enquiry,
		ExpectedVersion: expected,
		QuoteUpdate:     quote,
	}
	if err := s.addAdminAlerts(change, enquiry.ID, EventEnquiryCompleted, expected,
		repositories.NotificationTypeEnquiryCompleted, "Enquiry completed", emailBody, message); err != nil {
		return err
	}

	if err := s.enquiryRepo.ApplyTransition(change); err != nil {
		return s.mapEnquiryErr(err)
	}

	logger.TransitionLog(enquiry.ID, string(from), string(enquiry.Status), technicianID)
	return nil
}

// CompleteByAdmin marks an enquiry completed directly, without a
// working-hours recomputation.
func (s *EnquiryService) CompleteByAdmin(adminID, enquiryID string) error {
	enquiry, err := s.enquiryRepo.FindByID(enquiryID)
	if err != nil {
		return s.mapEnquiryErr(err)
	}
	if err := s.checkTransition(enquiry, models.EnquiryStatusCompleted); err != nil {
		return err
	}

	expected := enquiry.Version
	from := enquiry.Status
	enquiry.Status = models.EnquiryStatusCompleted

	message := fmt.Sprintf("Enquiry %s marked completed by admin", enquiry.ID)
	emailBody := s.renderBody("completion", email.TemplateData{
		"EnquiryID": enquiry.ID,
	}, message)

	change := &repositories.TransitionChange{
		Enquiry:         enquiry,
		ExpectedVersion: expected,
	}
	if err := s.addAdminAlerts(change, enquiry.ID, EventEnquiryCompleted, expected,
		repositories.NotificationTypeEnquiryCompleted, "Enquiry completed", emailBody, message); err != nil {
		return err
	}

	if err := s.enquiryRepo.ApplyTransition(change); err != nil {
		return s.mapEnquiryErr(err)
	}

	logger.TransitionLog(enquiry.ID, string(from), string(enquiry.Status), adminID)
	return nil
}

// Drop moves an enquiry to the dropped terminal state.
func (s *EnquiryService) Drop(adminID, enquiryID, reason string) error {
	enquiry, err := s.enquiryRepo.FindByID(enquiryID)
	if err != nil {
		return s.mapEnquiryErr(err)
	}
	if err := s.checkTransition(enquiry, models.EnquiryStatusDropped); err != nil {
		return err
	}

	expected := enquiry.Version
	from := enquiry.Status
	enquiry.Status = models.EnquiryStatusDropped
	enquiry.DropReason = &reason

	customer, err := s.userRepo.FindByID(enquiry.CustomerID)
	if err != nil {
		return apperrors.ErrNotFound(err)
	}

	message := fmt.Sprintf("Your enquiry %s was dropped: %s", enquiry.ID, reason)
	emailBody := s.renderBody("drop", email.TemplateData{
		"Name":      customer.Name,
		"EnquiryID": enquiry.ID,
		"Reason":    reason,
	}, message)
	change := &repositories.TransitionChange{
		Enquiry:         enquiry,
		ExpectedVersion: expected,
		Notifications: []*models.Notification{
			s.buildNotification(customer, repositories.NotificationTypeEnquiryDropped, message, enquiry.ID),
		},
		Dispatches: s.buildDispatches(enquiry.ID, EventEnquiryDropped, expected, customer,
			"Enquiry dropped", emailBody, message),
	}

	if err := s.enquiryRepo.ApplyTransition(change); err != nil {
		return s.mapEnquiryErr(err)
	}

	logger.TransitionLog(enquiry.ID, string(from), string(enquiry.Status), adminID)
	return nil
}

// --- Reads ---

func (s *EnquiryService) GetEnquiry(enquiryID string) (*dto.EnquiryResponse, error) {
	enquiry, err := s.enquiryRepo.FindByID(enquiryID)
	if err != nil {
		return nil, s.mapEnquiryErr(err)
	}

	quotes, err := s.quoteRepo.ListByEnquiry(enquiry.ID)
	if err != nil {
		return nil, err
	}

	return buildEnquiryResponse(enquiry, quotes), nil
}

func (s *EnquiryService) ListForCustomer(customerID string) ([]models.Enquiry, error) {
	return s.enquiryRepo.ListByCustomer(customerID)
}

func (s *EnquiryService) ListForTechnician(technicianID string) ([]models.Enquiry, error) {
	return s.enquiryRepo.ListByTechnician(technicianID)
}

// ListAll is the admin dashboard view; rawStatus may use any historical
// casing.
func (s *EnquiryService) ListAll(rawStatus string) ([]models.Enquiry, error) {
	var status models.EnquiryStatus
	if rawStatus != "" {
		parsed, ok := models.ParseEnquiryStatus(rawStatus)
		if !ok {
			return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown enquiry status %q", rawStatus))
		}
		status = parsed
	}
	return s.enquiryRepo.List(status)
}

// --- Helpers ---

func (s *EnquiryService) checkTransition(enquiry *models.Enquiry, to models.EnquiryStatus) error {
	if enquiry.Status.IsTerminal() {
		return apperrors.ErrEnquiryTerminal
	}
	if !models.CanTransition(enquiry.Status, to) {
		return apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"from": string(enquiry.Status),
			"to":   string(to),
		})
	}
	return nil
}

func (s *EnquiryService) findAssignableTechnician(technicianID, category string) (*models.User, error) {
	technician, err := s.userRepo.FindByID(technicianID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if !technician.IsApprovedTechnician() {
		return nil, apperrors.ErrTechnicianNotApproved
	}
	if category != "" && technician.FieldOfCategory != category {
		return nil, apperrors.ErrCategoryMismatch
	}
	return technician, nil
}

func (s *EnquiryService) loadPendingQuote(technicianID, quoteID string) (*models.TechnicianQuote, *models.Enquiry, error) {
	quote, err := s.quoteRepo.FindByID(quoteID)
	if err != nil {
		if errors.Is(err, repositories.ErrQuoteNotFound) {
			return nil, nil, apperrors.ErrNotFound(err)
		}
		return nil, nil, err
	}
	if quote.TechnicianID != technicianID {
		return nil, nil, apperrors.ErrInsufficientPermissions
	}
	if quote.Status != models.QuoteStatusPending {
		return nil, nil, apperrors.ErrQuoteNotPending
	}

	enquiry, err := s.enquiryRepo.FindByID(quote.EnquiryID)
	if err != nil {
		return nil, nil, s.mapEnquiryErr(err)
	}
	if enquiry.Status.IsTerminal() {
		return nil, nil, apperrors.ErrEnquiryTerminal
	}
	return quote, enquiry, nil
}

// addAdminAlerts appends a notification and dispatches for every admin.
func (s *EnquiryService) addAdminAlerts(change *repositories.TransitionChange, enquiryID, event string, seq int, notificationType, subject, emailBody, message string) error {
	admins, err := s.userRepo.ListAdmins()
	if err != nil {
		return err
	}
	for i := range admins {
		admin := &admins[i]
		change.Notifications = append(change.Notifications,
			s.buildNotification(admin, notificationType, message, enquiryID))
		change.Dispatches = append(change.Dispatches,
			s.buildDispatches(enquiryID, event, seq, admin, subject, emailBody, message)...)
	}
	return nil
}

func (s *EnquiryService) buildNotification(user *models.User, notificationType, message, enquiryID string) *models.Notification {
	data, _ := json.Marshal(map[string]string{"enquiry_id": enquiryID})
	eid := enquiryID
	return &models.Notification{
		UserID:    user.ID,
		UserType:  user.Role,
		Type:      notificationType,
		Message:   message,
		EnquiryID: &eid,
		Data:      datatypes.JSON(data),
	}
}

// buildDispatches queues one email and, when the user has a device token,
// one push for a lifecycle event. The email carries the rendered template
// body, the push the plain message. seq keeps the idempotency key distinct
// per transition instance (the enquiry version, or the quote attempt
// ordinal).
func (s *EnquiryService) buildDispatches(enquiryID, event string, seq int, user *models.User, subject, emailBody, pushBody string) []*models.DispatchOutbox {
	payload, _ := json.Marshal(map[string]string{
		"enquiry_id": enquiryID,
		"event":      event,
	})

	dispatches := []*models.DispatchOutbox{
		{
			EnquiryID:      enquiryID,
			Event:          event,
			Channel:        models.DispatchChannelEmail,
			RecipientID:    user.ID,
			Recipient:      user.Email,
			Subject:        subject,
			Body:           emailBody,
			Payload:        datatypes.JSON(payload),
			IdempotencyKey: dispatchKey(enquiryID, event, models.DispatchChannelEmail, user.ID, seq),
			Status:         models.DispatchStatusPending,
		},
	}

	if user.PushToken != "" {
		dispatches = append(dispatches, &models.DispatchOutbox{
			EnquiryID:      enquiryID,
			Event:          event,
			Channel:        models.DispatchChannelPush,
			RecipientID:    user.ID,
			Recipient:      user.PushToken,
			Subject:        subject,
			Body:           pushBody,
			Payload:        datatypes.JSON(payload),
			IdempotencyKey: dispatchKey(enquiryID, event, models.DispatchChannelPush, user.ID, seq),
			Status:         models.DispatchStatusPending,
		})
	}

	return dispatches
}

// renderBody renders the lifecycle email template, falling back to the plain
// message when rendering fails so a bad template never blocks a transition.
func (s *EnquiryService) renderBody(templateName string, data email.TemplateData, fallback string) string {
	if s.renderer == nil {
		return fallback
	}
	body, err := s.renderer.Render(templateName, data)
	if err != nil {
		logger.WithError(err).Warn("email template render failed", "template", templateName)
		return fallback
	}
	return body
}

func dispatchKey(enquiryID, event string, channel models.DispatchChannel, recipientID string, seq int) string {
	return fmt.Sprintf("%s:%s:%s:%s:%d", enquiryID, event, channel, recipientID, seq)
}

func (s *EnquiryService) mapEnquiryErr(err error) error {
	switch {
	case errors.Is(err, repositories.ErrEnquiryNotFound):
		return apperrors.ErrNotFound(err)
	case errors.Is(err, repositories.ErrVersionConflict):
		return apperrors.ErrEnquiryConflict
	default:
		return err
	}
}

func buildEnquiryResponse(enquiry *models.Enquiry, quotes []models.TechnicianQuote) *dto.EnquiryResponse {
	resp := &dto.EnquiryResponse{
		ID:                   enquiry.ID,
		CustomerID:           enquiry.CustomerID,
		AssignedTechnicianID: enquiry.AssignedTechnicianID,
		ProblemDescription:   enquiry.ProblemDescription,
		Domain:               enquiry.Domain,
		FieldOfCategory:      enquiry.FieldOfCategory,
		HardwareUsed:         enquiry.HardwareUsed,
		SoftwareUsed:         enquiry.SoftwareUsed,
		Status:               enquiry.Status,
		Version:              enquiry.Version,
		DropReason:           enquiry.DropReason,
		CreatedAt:            enquiry.CreatedAt,
		UpdatedAt:            enquiry.UpdatedAt,
	}

	for _, q := range quotes {
		resp.Quotes = append(resp.Quotes, dto.QuoteResponse{
			ID:               q.ID,
			EnquiryID:        q.EnquiryID,
			TechnicianID:     q.TechnicianID,
			ApproxTimeHours:  q.ApproxTimeHours,
			BudgetPerHour:    q.BudgetPerHour,
			EstimatedCost:    q.EstimatedCost,
			TotalBillingCost: q.TotalBillingCost,
			Status:           q.Status,
			RejectReason:     q.RejectReason,
			WorkedHours:      q.WorkedHours,
			CreatedAt:        q.CreatedAt,
		})
	}

	return resp
}
