package services

import (
	"context"
	"fmt"
	"time"

	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/payments"
	"dial2tech_backend/internal/repositories"

	"github.com/google/uuid"
)

// In-memory repository fakes. They honor the same contracts as the gorm
// implementations, including compare-and-swap on the enquiry version and
// idempotency-key dedup on dispatches.

type fakeEnquiryRepo struct {
	enquiries map[string]*models.Enquiry

	quotes        *fakeQuoteRepo
	notifications []*models.Notification
	dispatches    []*models.DispatchOutbox
	dispatchKeys  map[string]bool

	// beforeApply runs at the top of ApplyTransition; tests use it to
	// interleave a concurrent write.
	beforeApply func()
}

func newFakeEnquiryRepo(quotes *fakeQuoteRepo) *fakeEnquiryRepo {
	return &fakeEnquiryRepo{
		enquiries:    make(map[string]*models.Enquiry),
		quotes:       quotes,
		dispatchKeys: make(map[string]bool),
	}
}

func (r *fakeEnquiryRepo) Create(enquiry *models.Enquiry) error {
	if enquiry.ID == "" {
		enquiry.ID = uuid.NewString()
	}
	enquiry.CreatedAt = time.Now()
	cp := *enquiry
	r.enquiries[enquiry.ID] = &cp
	return nil
}

func (r *fakeEnquiryRepo) FindByID(id string) (*models.Enquiry, error) {
	e, ok := r.enquiries[id]
	if !ok {
		return nil, repositories.ErrEnquiryNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEnquiryRepo) ListByCustomer(customerID string) ([]models.Enquiry, error) {
	var out []models.Enquiry
	for _, e := range r.enquiries {
		if e.CustomerID == customerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEnquiryRepo) ListByTechnician(technicianID string) ([]models.Enquiry, error) {
	var out []models.Enquiry
	for _, e := range r.enquiries {
		if e.AssignedTechnicianID != nil && *e.AssignedTechnicianID == technicianID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEnquiryRepo) List(status models.EnquiryStatus) ([]models.Enquiry, error) {
	var out []models.Enquiry
	for _, e := range r.enquiries {
		if status == "" || e.Status == status {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEnquiryRepo) ApplyTransition(change *repositories.TransitionChange) error {
	if r.beforeApply != nil {
		r.beforeApply()
	}
	if change.Enquiry != nil {
		stored, ok := r.enquiries[change.Enquiry.ID]
		if !ok {
			return repositories.ErrEnquiryNotFound
		}
		if stored.Version != change.ExpectedVersion {
			return repositories.ErrVersionConflict
		}
		cp := *change.Enquiry
		cp.Version = change.ExpectedVersion + 1
		cp.UpdatedAt = time.Now()
		r.enquiries[cp.ID] = &cp
		change.Enquiry.Version = cp.Version
	}

	if change.NewQuote != nil {
		if err := r.quotes.Create(change.NewQuote); err != nil {
			return err
		}
	}
	if change.QuoteUpdate != nil {
		cp := *change.QuoteUpdate
		r.quotes.quotes[cp.ID] = &cp
	}

	r.notifications = append(r.notifications, change.Notifications...)
	for _, d := range change.Dispatches {
		if r.dispatchKeys[d.IdempotencyKey] {
			continue
		}
		r.dispatchKeys[d.IdempotencyKey] = true
		r.dispatches = append(r.dispatches, d)
	}
	return nil
}

type fakeQuoteRepo struct {
	quotes map[string]*models.TechnicianQuote
	order  []string
}

func newFakeQuoteRepo() *fakeQuoteRepo {
	return &fakeQuoteRepo{quotes: make(map[string]*models.TechnicianQuote)}
}

func (r *fakeQuoteRepo) Create(quote *models.TechnicianQuote) error {
	if quote.ID == "" {
		quote.ID = uuid.NewString()
	}
	quote.CreatedAt = time.Now()
	cp := *quote
	r.quotes[quote.ID] = &cp
	r.order = append(r.order, quote.ID)
	return nil
}

func (r *fakeQuoteRepo) FindByID(id string) (*models.TechnicianQuote, error) {
	q, ok := r.quotes[id]
	if !ok {
		return nil, repositories.ErrQuoteNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *fakeQuoteRepo) ListByEnquiry(enquiryID string) ([]models.TechnicianQuote, error) {
	var out []models.TechnicianQuote
	for _, id := range r.order {
		if q := r.quotes[id]; q.EnquiryID == enquiryID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *fakeQuoteRepo) LatestAccepted(enquiryID string) (*models.TechnicianQuote, error) {
	for i := len(r.order) - 1; i >= 0; i-- {
		q := r.quotes[r.order[i]]
		if q.EnquiryID == enquiryID && q.Status == models.QuoteStatusAccepted {
			cp := *q
			return &cp, nil
		}
	}
	return nil, repositories.ErrQuoteNotFound
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *fakeUserRepo) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByResetToken(token string) (*models.User, error) {
	for _, u := range r.users {
		if token != "" && u.ResetToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) ListTechnicians(status models.UserStatus, category string) ([]models.User, error) {
	var out []models.User
	for _, u := range r.users {
		if u.Role != models.UserRoleTechnician {
			continue
		}
		if status != "" && u.Status != status {
			continue
		}
		if category != "" && u.FieldOfCategory != category {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) ListAdmins() ([]models.User, error) {
	var out []models.User
	for _, u := range r.users {
		if u.Role == models.UserRoleAdmin {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SetStatus(userID string, status models.UserStatus) error {
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Status = status
	return nil
}

type fakeNotificationRepo struct {
	notifications []*models.Notification
}

func (r *fakeNotificationRepo) Create(n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *fakeNotificationRepo) CreateBulk(ns []*models.Notification) error {
	for _, n := range ns {
		if err := r.Create(n); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeNotificationRepo) FindByID(id string) (*models.Notification, error) {
	for _, n := range r.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, repositories.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) FindUserNotifications(userID string, criteria repositories.NotificationCriteria) ([]models.Notification, int64, error) {
	var out []models.Notification
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		if criteria.UnreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) MarkAsRead(notificationID string) error {
	for _, n := range r.notifications {
		if n.ID == notificationID && !n.IsRead {
			now := time.Now()
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(userID string) error {
	for _, n := range r.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) GetUnreadCount(userID string) (int64, error) {
	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) CleanOld(olderThan time.Time) (int64, error) {
	return 0, nil
}

type fakePaymentRepo struct {
	payments []*models.Payment
}

func (r *fakePaymentRepo) Create(p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	for _, existing := range r.payments {
		if existing.PaymentID == p.PaymentID {
			return fmt.Errorf("duplicate payment id %s", p.PaymentID)
		}
	}
	r.payments = append(r.payments, p)
	return nil
}

func (r *fakePaymentRepo) ListByEnquiry(enquiryID string) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range r.payments {
		if p.EnquiryID == enquiryID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) SumSuccessful(enquiryID string) (float64, error) {
	var total float64
	for _, p := range r.payments {
		if p.EnquiryID == enquiryID && p.Status == models.PaymentStatusSuccess {
			total += p.Amount
		}
	}
	return total, nil
}

type fakeGateway struct {
	orders        []*payments.Order
	validPairs    map[string]bool // "orderID|paymentID" accepted
	createOrderFn func(amount float64) error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{validPairs: make(map[string]bool)}
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*payments.Order, error) {
	if g.createOrderFn != nil {
		if err := g.createOrderFn(amount); err != nil {
			return nil, err
		}
	}
	order := &payments.Order{
		ID:       fmt.Sprintf("order_%d", len(g.orders)+1),
		Amount:   payments.ToSubunits(amount),
		Currency: currency,
		Receipt:  receipt,
	}
	g.orders = append(g.orders, order)
	return order, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return g.validPairs[orderID+"|"+paymentID] && signature != ""
}
