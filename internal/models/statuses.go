package models

import "strings"

type UserStatus string
type UserRole string
type EnquiryStatus string
type QuoteStatus string
type PaymentStatus string
type DispatchStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusApproved  UserStatus = "approved"
	UserStatusRejected  UserStatus = "rejected"
	UserStatusSuspended UserStatus = "suspended"

	UserRoleCustomer   UserRole = "customer"
	UserRoleTechnician UserRole = "technician"
	UserRoleAdmin      UserRole = "admin"

	EnquiryStatusPending   EnquiryStatus = "pending"
	EnquiryStatusInProcess EnquiryStatus = "in_process"
	EnquiryStatusCompleted EnquiryStatus = "completed"
	EnquiryStatusDropped   EnquiryStatus = "dropped"

	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"

	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"

	DispatchStatusPending DispatchStatus = "pending"
	DispatchStatusSent    DispatchStatus = "sent"
	DispatchStatusFailed  DispatchStatus = "failed"
)

// enquiryTransitions lists the legal status transitions. completed and
// dropped are terminal.
var enquiryTransitions = map[EnquiryStatus]map[EnquiryStatus]bool{
	EnquiryStatusPending:   {EnquiryStatusInProcess: true, EnquiryStatusDropped: true},
	EnquiryStatusInProcess: {EnquiryStatusCompleted: true, EnquiryStatusDropped: true},
	EnquiryStatusCompleted: {},
	EnquiryStatusDropped:   {},
}

// CanTransition reports whether an enquiry may move from one status to
// another. Self-transitions are not legal moves.
func CanTransition(from, to EnquiryStatus) bool {
	next, ok := enquiryTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// IsTerminal reports whether no further transition is accepted from s.
func (s EnquiryStatus) IsTerminal() bool {
	return s == EnquiryStatusCompleted || s == EnquiryStatusDropped
}

func (s EnquiryStatus) Valid() bool {
	_, ok := enquiryTransitions[s]
	return ok
}

// ParseEnquiryStatus normalizes the inconsistent casing of historical data
// ("Pending", "In_process", "Completed") into the canonical enum.
func ParseEnquiryStatus(raw string) (EnquiryStatus, bool) {
	s := EnquiryStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", false
	}
	return s, true
}

// ParseQuoteStatus normalizes quote outcomes, mapping the legacy "Dropped"
// casing onto rejected.
func ParseQuoteStatus(raw string) (QuoteStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return QuoteStatusPending, true
	case "accepted":
		return QuoteStatusAccepted, true
	case "rejected", "dropped":
		return QuoteStatusRejected, true
	}
	return "", false
}
