package apperrors

import "net/http"

// Domain factories and predefined errors for the enquiry lifecycle, quoting
// and payment reconciliation.

// ErrNotFound converts a repository miss (gorm.ErrRecordNotFound and friends)
// into a 404 AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists converts a uniqueness violation into a 409.
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict is the generic 409 factory.
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation builds a 400 for operations the domain does not permit.
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrExternalService wraps a failed call to the gateway, SMTP or push
// endpoint.
func ErrExternalService(err error, domain, message string) *AppError {
	return Wrap(err, CodeExternalServiceError, domain, message, http.StatusBadGateway)
}

// --- Enquiry lifecycle ---

// ErrInvalidTransition rejects a status move the transition table does not
// allow.
var ErrInvalidTransition = New(
	CodeInvalidStatus,
	"enquiry",
	"Enquiry status transition is not allowed",
	http.StatusConflict,
)

// ErrEnquiryTerminal rejects any transition attempted from completed or
// dropped.
var ErrEnquiryTerminal = New(
	CodeInvalidStatus,
	"enquiry",
	"Enquiry is in a terminal status",
	http.StatusConflict,
)

// ErrEnquiryConflict reports a stale compare-and-swap write; the caller saw
// an older version of the enquiry than the database holds.
var ErrEnquiryConflict = New(
	CodeConflict,
	"enquiry",
	"Enquiry was modified concurrently, reload and retry",
	http.StatusConflict,
)

// --- Technicians ---

var ErrTechnicianNotApproved = New(
	CodeInvalidOperation,
	"technician",
	"Technician is not approved",
	http.StatusBadRequest,
)

var ErrCategoryMismatch = New(
	CodeInvalidOperation,
	"technician",
	"Technician category does not match the enquiry",
	http.StatusBadRequest,
)

// --- Quotes and payments ---

var ErrQuoteNotPending = New(
	CodeInvalidStatus,
	"quote",
	"Quote has already been resolved",
	http.StatusConflict,
)

var ErrNothingToPay = New(
	CodeInvalidOperation,
	"payment",
	"Enquiry has no outstanding balance",
	http.StatusBadRequest,
)

var ErrNoAcceptedQuote = New(
	CodeInvalidOperation,
	"payment",
	"Enquiry has no accepted quote to bill against",
	http.StatusBadRequest,
)

// --- Access control ---

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)
