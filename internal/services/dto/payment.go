package dto

type CreateOrderRequest struct {
	EnquiryID string `json:"enquiry_id" binding:"required"`
}

// OrderResponse mirrors the gateway's order object; Amount is in the
// gateway's smallest subunit.
type OrderResponse struct {
	OrderID  string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type VerifyPaymentRequest struct {
	EnquiryID string  `json:"enquiry_id" binding:"required"`
	OrderID   string  `json:"order_id" binding:"required"`
	PaymentID string  `json:"payment_id" binding:"required"`
	Signature string  `json:"signature" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

// VerifyPaymentResponse reports the verification outcome; a signature
// mismatch is a "failure" status, not an HTTP error.
type VerifyPaymentResponse struct {
	Status    string `json:"status"` // "success" | "failure"
	PaymentID string `json:"payment_id,omitempty"`
}

// ReconciliationResponse is the outstanding-balance view for an enquiry.
type ReconciliationResponse struct {
	EnquiryID      string  `json:"enquiry_id"`
	TotalEstimated float64 `json:"total_estimated"` // billed amount incl. markup
	TotalPaid      float64 `json:"total_paid"`
	Balance        float64 `json:"balance"`
	Overpaid       bool    `json:"overpaid"`
}
