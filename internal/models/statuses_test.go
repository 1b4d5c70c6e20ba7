package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to EnquiryStatus
		allowed  bool
	}{
		{EnquiryStatusPending, EnquiryStatusInProcess, true},
		{EnquiryStatusPending, EnquiryStatusDropped, true},
		{EnquiryStatusPending, EnquiryStatusCompleted, false},
		{EnquiryStatusInProcess, EnquiryStatusCompleted, true},
		{EnquiryStatusInProcess, EnquiryStatusDropped, true},
		{EnquiryStatusInProcess, EnquiryStatusPending, false},
		{EnquiryStatusCompleted, EnquiryStatusInProcess, false},
		{EnquiryStatusCompleted, EnquiryStatusDropped, false},
		{EnquiryStatusDropped, EnquiryStatusInProcess, false},
		{EnquiryStatusDropped, EnquiryStatusCompleted, false},
		{EnquiryStatusPending, EnquiryStatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, EnquiryStatusPending.IsTerminal())
	assert.False(t, EnquiryStatusInProcess.IsTerminal())
	assert.True(t, EnquiryStatusCompleted.IsTerminal())
	assert.True(t, EnquiryStatusDropped.IsTerminal())
}

func TestParseEnquiryStatusNormalizesCasing(t *testing.T) {
	for raw, want := range map[string]EnquiryStatus{
		"pending":    EnquiryStatusPending,
		"Pending":    EnquiryStatusPending,
		"In_process": EnquiryStatusInProcess,
		"IN_PROCESS": EnquiryStatusInProcess,
		" Completed": EnquiryStatusCompleted,
		"dropped":    EnquiryStatusDropped,
	} {
		got, ok := ParseEnquiryStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseEnquiryStatus("cancelled")
	assert.False(t, ok)
}

func TestParseQuoteStatusMapsLegacyDropped(t *testing.T) {
	got, ok := ParseQuoteStatus("Dropped")
	assert.True(t, ok)
	assert.Equal(t, QuoteStatusRejected, got)

	got, ok = ParseQuoteStatus("accepted")
	assert.True(t, ok)
	assert.Equal(t, QuoteStatusAccepted, got)

	_, ok = ParseQuoteStatus("unknown")
	assert.False(t, ok)
}
