package services

import (
	"context"
	"errors"
	"fmt"

	"dial2tech_backend/internal/billing"
	"dial2tech_backend/internal/logger"
	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/payments"
	"dial2tech_backend/internal/repositories"
	"dial2tech_backend/internal/services/dto"
	"dial2tech_backend/pkg/apperrors"
)

// PaymentService creates gateway orders against the outstanding balance of
// an enquiry and records verified payments. Payment rows are append-only;
// the balance is always recomputed from them.
type PaymentService struct {
	paymentRepo      repositories.PaymentRepository
	quoteRepo        repositories.QuoteRepository
	enquiryRepo      repositories.EnquiryRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	gateway          payments.Gateway
	currency         string
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	quoteRepo repositories.QuoteRepository,
	enquiryRepo repositories.EnquiryRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	gateway payments.Gateway,
	currency string,
) *PaymentService {
	return &PaymentService{
		paymentRepo:      paymentRepo,
		quoteRepo:        quoteRepo,
		enquiryRepo:      enquiryRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		gateway:          gateway,
		currency:         currency,
	}
}

// CreateOrder opens a gateway order for the outstanding balance of an
// enquiry. The gateway works in subunits; conversion happens at the client
// boundary, everything here stays in rupees.
func (s *PaymentService) CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	recon, err := s.Reconcile(req.EnquiryID)
	if err != nil {
		return nil, err
	}
	if recon.Balance <= 0 {
		return nil, apperrors.ErrNothingToPay
	}

	order, err := s.gateway.CreateOrder(ctx, recon.Balance, s.currency, req.EnquiryID)
	if err != nil {
		return nil, apperrors.ErrExternalService(err, "payments", "failed to create gateway order")
	}

	logger.Info("gateway order created", "enquiry_id", req.EnquiryID,
		"order_id", order.ID, "amount_subunits", order.Amount)

	return &dto.OrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
	}, nil
}

// VerifyAndRecord checks the gateway's payment signature and appends a
// payment row. A bad signature is recorded as a failed payment and reported
// as a failure result, not an error; failed rows never count toward the
// balance.
func (s *PaymentService) VerifyAndRecord(req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	enquiry, err := s.enquiryRepo.FindByID(req.EnquiryID)
	if err != nil {
		if errors.Is(err, repositories.ErrEnquiryNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, err
	}

	status := models.PaymentStatusSuccess
	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		status = models.PaymentStatusFailed
	}

	payment := &models.Payment{
		EnquiryID: enquiry.ID,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Amount:    req.Amount,
		Status:    status,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	if status == models.PaymentStatusFailed {
		logger.Warn("payment signature mismatch", "enquiry_id", enquiry.ID,
			"order_id", req.OrderID, "payment_id", req.PaymentID)
		return &dto.VerifyPaymentResponse{Status: "failure"}, nil
	}

	logger.Info("payment recorded", "enquiry_id", enquiry.ID,
		"payment_id", req.PaymentID, "amount", req.Amount)
	s.notifyAdmins(enquiry.ID, req.Amount)

	return &dto.VerifyPaymentResponse{Status: "success", PaymentID: req.PaymentID}, nil
}

// Reconcile computes the outstanding balance for an enquiry: the billed
// total of the governing accepted quote minus all successful payments,
// rounded to two decimals. A negative balance is reported as-is with the
// overpaid flag set.
func (s *PaymentService) Reconcile(enquiryID string) (*dto.ReconciliationResponse, error) {
	if _, err := s.enquiryRepo.FindByID(enquiryID); err != nil {
		if errors.Is(err, repositories.ErrEnquiryNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, err
	}

	quote, err := s.quoteRepo.LatestAccepted(enquiryID)
	if err != nil {
		if errors.Is(err, repositories.ErrQuoteNotFound) {
			return nil, apperrors.ErrNoAcceptedQuote
		}
		return nil, err
	}

	paid, err := s.paymentRepo.SumSuccessful(enquiryID)
	if err != nil {
		return nil, err
	}

	balance := billing.Round(quote.TotalBillingCost-paid, 2)

	return &dto.ReconciliationResponse{
		EnquiryID:      enquiryID,
		TotalEstimated: quote.TotalBillingCost,
		TotalPaid:      paid,
		Balance:        balance,
		Overpaid:       balance < 0,
	}, nil
}

// ListPayments returns the append-only payment history of an enquiry.
func (s *PaymentService) ListPayments(enquiryID string) ([]models.Payment, error) {
	return s.paymentRepo.ListByEnquiry(enquiryID)
}

// notifyAdmins records an in-app payment notification for every admin.
// Notification failures are logged and swallowed, the payment row is already
// committed.
func (s *PaymentService) notifyAdmins(enquiryID string, amount float64) {
	admins, err := s.userRepo.ListAdmins()
	if err != nil {
		logger.WithError(err).Warn("failed to list admins for payment notification")
		return
	}

	eid := enquiryID
	notifications := make([]*models.Notification, 0, len(admins))
	for i := range admins {
		notifications = append(notifications, &models.Notification{
			UserID:    admins[i].ID,
			UserType:  models.UserRoleAdmin,
			Type:      repositories.NotificationTypePaymentReceived,
			Message:   fmt.Sprintf("Payment of ₹%.2f received for enquiry %s", amount, enquiryID),
			EnquiryID: &eid,
		})
	}
	if len(notifications) == 0 {
		return
	}
	if err := s.notificationRepo.CreateBulk(notifications); err != nil {
		logger.WithError(err).Warn("failed to record payment notifications")
	}
}
