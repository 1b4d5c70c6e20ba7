package services

import (
	"fmt"
	"testing"
	"time"

	"dial2tech_backend/internal/email"
	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/repositories"
	"dial2tech_backend/internal/services/dto"
	"dial2tech_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lifecycleFixture struct {
	service     *EnquiryService
	enquiryRepo *fakeEnquiryRepo
	quoteRepo   *fakeQuoteRepo
	userRepo    *fakeUserRepo

	customer   *models.User
	technician *models.User
	admin      *models.User
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	customer := &models.User{
		BaseModel: models.BaseModel{ID: "customer-1"},
		Email:     "customer@example.com",
		Name:      "Asha",
		Role:      models.UserRoleCustomer,
		Status:    models.UserStatusApproved,
	}
	technician := &models.User{
		BaseModel:       models.BaseModel{ID: "tech-1"},
		Email:           "tech@example.com",
		Name:            "Ravi",
		Role:            models.UserRoleTechnician,
		Status:          models.UserStatusApproved,
		FieldOfCategory: "networking",
		PushToken:       "device-token-1",
	}
	admin := &models.User{
		BaseModel: models.BaseModel{ID: "admin-1"},
		Email:     "admin@example.com",
		Name:      "Ops",
		Role:      models.UserRoleAdmin,
		Status:    models.UserStatusApproved,
	}

	quoteRepo := newFakeQuoteRepo()
	enquiryRepo := newFakeEnquiryRepo(quoteRepo)
	userRepo := newFakeUserRepo(customer, technician, admin)
	notificationRepo := &fakeNotificationRepo{}

	return &lifecycleFixture{
		service:     NewEnquiryService(enquiryRepo, quoteRepo, userRepo, notificationRepo, email.NewTemplateManager()),
		enquiryRepo: enquiryRepo,
		quoteRepo:   quoteRepo,
		userRepo:    userRepo,
		customer:    customer,
		technician:  technician,
		admin:       admin,
	}
}

func (f *lifecycleFixture) submit(t *testing.T) *models.Enquiry {
	t.Helper()
	enquiry, err := f.service.Submit(f.customer.ID, &dto.CreateEnquiryRequest{
		ProblemDescription: "Router drops connection every few minutes",
		FieldOfCategory:    "networking",
	})
	require.NoError(t, err)
	return enquiry
}

func (f *lifecycleFixture) sendQuote(t *testing.T, enquiryID string, hours, rate float64) *models.TechnicianQuote {
	t.Helper()
	quote, err := f.service.SendQuote(enquiryID, &dto.SendQuoteRequest{
		TechnicianID:    f.technician.ID,
		ApproxTimeHours: hours,
		BudgetPerHour:   rate,
	})
	require.NoError(t, err)
	return quote
}

func TestSubmitCreatesPendingEnquiry(t *testing.T) {
	f := newLifecycleFixture(t)

	enquiry := f.submit(t)

	assert.Equal(t, models.EnquiryStatusPending, enquiry.Status)
	assert.Equal(t, 1, enquiry.Version)
	assert.Nil(t, enquiry.AssignedTechnicianID)
}

func TestSubmitRejectsNonCustomer(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.service.Submit(f.technician.ID, &dto.CreateEnquiryRequest{
		ProblemDescription: "x",
		FieldOfCategory:    "networking",
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)
}

func TestSendQuoteComputesBilledAmounts(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)

	quote := f.sendQuote(t, enquiry.ID, 2, 150)

	assert.Equal(t, 300.0, quote.EstimatedCost)
	assert.Equal(t, 390.0, quote.TotalBillingCost)
	assert.Equal(t, models.QuoteStatusPending, quote.Status)

	// The enquiry status does not move on a quote send.
	stored, err := f.enquiryRepo.FindByID(enquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnquiryStatusPending, stored.Status)

	// One email plus one push dispatch for the quoted technician.
	require.Len(t, f.enquiryRepo.dispatches, 2)
	channels := map[models.DispatchChannel]string{}
	for _, d := range f.enquiryRepo.dispatches {
		channels[d.Channel] = d.Recipient
	}
	assert.Equal(t, f.technician.Email, channels[models.DispatchChannelEmail])
	assert.Equal(t, f.technician.PushToken, channels[models.DispatchChannelPush])
}

func TestSendQuoteRendersEmailTemplateBody(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)

	f.sendQuote(t, enquiry.ID, 2, 150)

	bodies := map[models.DispatchChannel]string{}
	for _, d := range f.enquiryRepo.dispatches {
		bodies[d.Channel] = d.Body
	}

	// The email channel carries the rendered template, the push channel the
	// plain message.
	assert.Contains(t, bodies[models.DispatchChannelEmail], "Hello Ravi")
	assert.Contains(t, bodies[models.DispatchChannelEmail], "A new quotation request")
	assert.Contains(t, bodies[models.DispatchChannelEmail], enquiry.ID)
	assert.Equal(t, fmt.Sprintf("New quotation of ₹390.00 for enquiry %s", enquiry.ID),
		bodies[models.DispatchChannelPush])
}

func TestSendQuoteRequiresApprovedTechnician(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)
	f.technician.Status = models.UserStatusPending
	require.NoError(t, f.userRepo.Update(f.technician))

	_, err := f.service.SendQuote(enquiry.ID, &dto.SendQuoteRequest{
		TechnicianID:    f.technician.ID,
		ApproxTimeHours: 2,
		BudgetPerHour:   150,
	})
	assert.ErrorIs(t, err, apperrors.ErrTechnicianNotApproved)
}

func TestSendQuoteRequiresMatchingCategory(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)
	f.technician.FieldOfCategory = "appliances"
	require.NoError(t, f.userRepo.Update(f.technician))

	_, err := f.service.SendQuote(enquiry.ID, &dto.SendQuoteRequest{
		TechnicianID:    f.technician.ID,
		ApproxTimeHours: 2,
		BudgetPerHour:   150,
	})
	assert.ErrorIs(t, err, apperrors.ErrCategoryMismatch)
}

func TestAssignTechnicianMovesToInProcess(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)

	require.NoError(t, f.service.AssignTechnician(enquiry.ID, f.technician.ID))

	stored, err := f.enquiryRepo.FindByID(enquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnquiryStatusInProcess, stored.Status)
	assert.Equal(t, 2, stored.Version)
	require.NotNil(t, stored.AssignedTechnicianID)
	assert.Equal(t, f.technician.ID, *stored.AssignedTechnicianID)
}

func TestAcceptQuoteResolvesQuoteAndAlertsAdmins(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)
	quote := f.sendQuote(t, enquiry.ID, 2, 150)

	require.NoError(t, f.service.AcceptQuote(f.technician.ID, quote.ID))

	stored, err := f.enquiryRepo.FindByID(enquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnquiryStatusInProcess, stored.Status)

	updated, err := f.quoteRepo.FindByID(quote.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusAccepted, updated.Status)

	var adminNotified bool
	for _, n := range f.enquiryRepo.notifications {
		if n.UserID == f.admin.ID && n.Type == repositories.NotificationTypeQuoteAccepted {
			adminNotified = true
		}
	}
	assert.True(t, adminNotified)
}

func TestRejectQuoteDropsEnquiryOnce(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)
	quote := f.sendQuote(t, enquiry.ID, 2, 150)

	require.NoError(t, f.service.RejectQuote(f.technician.ID, quote.ID, "parts unavailable"))

	stored, err := f.enquiryRepo.FindByID(enquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnquiryStatusDropped, stored.Status)
	require.NotNil(t, stored.DropReason)
	assert.Equal(t, "parts unavailable", *stored.DropReason)

	var rejectionAlerts int
	for _, n := range f.enquiryRepo.notifications {
		if n.Type == repositories.NotificationTypeQuoteRejected {
			rejectionAlerts++
		}
	}
	assert.Equal(t, 1, rejectionAlerts)

	// A second rejection fails on the already-resolved quote and produces
	// no further alerts.
	err = f.service.RejectQuote(f.technician.ID, quote.ID, "again")
	assert.ErrorIs(t, err, apperrors.ErrQuoteNotPending)

	rejectionAlerts = 0
	for _, n := range f.enquiryRepo.notifications {
		if n.Type == repositories.NotificationTypeQuoteRejected {
			rejectionAlerts++
		}
	}
	assert.Equal(t, 1, rejectionAlerts)
}

func TestCompleteByTechnicianRecomputesBilling(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)
	quote := f.sendQuote(t, enquiry.ID, 2, 150)
	require.NoError(t, f.service.AcceptQuote(f.technician.ID, quote.ID))

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2*time.Hour + 30*time.Minute)
	require.NoError(t, f.service.CompleteByTechnician(f.technician.ID, enquiry.ID, &dto.CompleteEnquiryRequest{
		WorkStartedAt: start,
		WorkEndedAt:   end,
	}))

	stored, err := f.enquiryRepo.FindByID(enquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnquiryStatusCompleted, stored.Status)

	updated, err := f.quoteRepo.FindByID(quote.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.WorkedHours)
	assert.Equal(t, 2.5, *updated.WorkedHours)
	assert.Equal(t, 375.0, updated.EstimatedCost)
	assert.Equal(t, 487.5, updated.TotalBillingCost)
}

func TestCompleteByTechnicianRequiresAssignment(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)

	err := f.service.CompleteByTechnician(f.technician.ID, enquiry.ID, &dto.CompleteEnquiryRequest{
		WorkStartedAt: time.Now().Add(-time.Hour),
		WorkEndedAt:   time.Now(),
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)
}

func TestCompleteByAdminRequiresInProcess(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)

	err := f.service.CompleteByAdmin(f.admin.ID, enquiry.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	require.NoError(t, f.service.AssignTechnician(enquiry.ID, f.technician.ID))
	require.NoError(t, f.service.CompleteByAdmin(f.admin.ID, enquiry.ID))

	stored, err := f.enquiryRepo.FindByID(enquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnquiryStatusCompleted, stored.Status)
}

func TestTerminalEnquiryRejectsFurtherTransitions(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)
	require.NoError(t, f.service.Drop(f.admin.ID, enquiry.ID, "spam"))

	err := f.service.AssignTechnician(enquiry.ID, f.technician.ID)
	assert.ErrorIs(t, err, apperrors.ErrEnquiryTerminal)

	err = f.service.Drop(f.admin.ID, enquiry.ID, "again")
	assert.ErrorIs(t, err, apperrors.ErrEnquiryTerminal)

	_, err = f.service.SendQuote(enquiry.ID, &dto.SendQuoteRequest{
		TechnicianID:    f.technician.ID,
		ApproxTimeHours: 1,
		BudgetPerHour:   100,
	})
	assert.ErrorIs(t, err, apperrors.ErrEnquiryTerminal)
}

func TestConcurrentTransitionConflicts(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)

	// Two actors read version 1; the second write loses the race.
	stale, err := f.enquiryRepo.FindByID(enquiry.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.AssignTechnician(enquiry.ID, f.technician.ID))

	stale.Status = models.EnquiryStatusDropped
	err = f.enquiryRepo.ApplyTransition(&repositories.TransitionChange{
		Enquiry:         stale,
		ExpectedVersion: 1,
	})
	assert.ErrorIs(t, err, repositories.ErrVersionConflict)
}

func TestDropConflictSurfacesAsConflictError(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)

	// A concurrent write lands between the service's read and its
	// compare-and-swap.
	f.enquiryRepo.beforeApply = func() {
		f.enquiryRepo.enquiries[enquiry.ID].Version++
		f.enquiryRepo.beforeApply = nil
	}

	err := f.service.Drop(f.admin.ID, enquiry.ID, "stale actor")
	assert.ErrorIs(t, err, apperrors.ErrEnquiryConflict)
}

func TestRepeatedDispatchKeysAreDeduplicated(t *testing.T) {
	f := newLifecycleFixture(t)
	enquiry := f.submit(t)

	d := func() *models.DispatchOutbox {
		return &models.DispatchOutbox{
			EnquiryID:      enquiry.ID,
			Event:          EventTechnicianAssigned,
			Channel:        models.DispatchChannelEmail,
			Recipient:      f.technician.Email,
			IdempotencyKey: dispatchKey(enquiry.ID, EventTechnicianAssigned, models.DispatchChannelEmail, f.technician.ID, 1),
			Status:         models.DispatchStatusPending,
		}
	}
	require.NoError(t, f.enquiryRepo.ApplyTransition(&repositories.TransitionChange{Dispatches: []*models.DispatchOutbox{d()}}))
	require.NoError(t, f.enquiryRepo.ApplyTransition(&repositories.TransitionChange{Dispatches: []*models.DispatchOutbox{d()}}))

	assert.Len(t, f.enquiryRepo.dispatches, 1)
}

func TestListAllNormalizesStatusFilter(t *testing.T) {
	f := newLifecycleFixture(t)
	f.submit(t)

	enquiries, err := f.service.ListAll("Pending")
	require.NoError(t, err)
	assert.Len(t, enquiries, 1)

	_, err = f.service.ListAll("bogus")
	assert.Error(t, err)
}
