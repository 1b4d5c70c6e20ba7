package workers

import (
	"context"
	"errors"
	"testing"

	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/push"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutboxRepo struct {
	rows []*models.DispatchOutbox
}

func (r *fakeOutboxRepo) Enqueue(d *models.DispatchOutbox) error {
	for _, row := range r.rows {
		if row.IdempotencyKey == d.IdempotencyKey {
			return nil
		}
	}
	r.rows = append(r.rows, d)
	return nil
}

func (r *fakeOutboxRepo) ClaimPending(limit int) ([]models.DispatchOutbox, error) {
	var out []models.DispatchOutbox
	for _, row := range r.rows {
		if row.Status == models.DispatchStatusPending {
			out = append(out, *row)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) MarkSent(id string) error {
	for _, row := range r.rows {
		if row.ID == id {
			row.Status = models.DispatchStatusSent
			row.Attempts++
		}
	}
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(id string, attempt int, lastErr string, terminal bool) error {
	for _, row := range r.rows {
		if row.ID == id {
			row.Attempts = attempt
			row.LastError = &lastErr
			if terminal {
				row.Status = models.DispatchStatusFailed
			}
		}
	}
	return nil
}

func (r *fakeOutboxRepo) CountPending() (int64, error) {
	var n int64
	for _, row := range r.rows {
		if row.Status == models.DispatchStatusPending {
			n++
		}
	}
	return n, nil
}

type fakePushSender struct {
	sent []*push.Message
	err  error
}

func (s *fakePushSender) Send(ctx context.Context, msg *push.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fakeEmailSender struct {
	sent []string
	err  error
}

func (s *fakeEmailSender) Send(to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func pendingDispatch(id string, channel models.DispatchChannel, recipient string) *models.DispatchOutbox {
	return &models.DispatchOutbox{
		ID:             id,
		EnquiryID:      "enquiry-1",
		Event:          "technician_assigned",
		Channel:        channel,
		Recipient:      recipient,
		Subject:        "Enquiry assigned to you",
		Body:           "You have been assigned enquiry enquiry-1",
		IdempotencyKey: "key-" + id,
		Status:         models.DispatchStatusPending,
	}
}

func TestDrainDeliversAndMarksSent(t *testing.T) {
	repo := &fakeOutboxRepo{}
	require.NoError(t, repo.Enqueue(pendingDispatch("d1", models.DispatchChannelEmail, "tech@example.com")))
	require.NoError(t, repo.Enqueue(pendingDispatch("d2", models.DispatchChannelPush, "device-token")))

	pushSender := &fakePushSender{}
	emailSender := &fakeEmailSender{}
	w := NewDispatchWorker(repo, pushSender, emailSender, 0, 0, 0)

	require.NoError(t, w.Drain(context.Background()))

	assert.Equal(t, []string{"tech@example.com"}, emailSender.sent)
	require.Len(t, pushSender.sent, 1)
	assert.Equal(t, "device-token", pushSender.sent[0].Token)

	for _, row := range repo.rows {
		assert.Equal(t, models.DispatchStatusSent, row.Status)
	}

	pending, err := repo.CountPending()
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestDrainRetriesFailuresUntilTerminal(t *testing.T) {
	repo := &fakeOutboxRepo{}
	require.NoError(t, repo.Enqueue(pendingDispatch("d1", models.DispatchChannelEmail, "tech@example.com")))

	emailSender := &fakeEmailSender{err: errors.New("smtp unavailable")}
	w := NewDispatchWorker(repo, &fakePushSender{}, emailSender, 0, 0, 2)

	// First failure stays pending for another attempt.
	require.NoError(t, w.Drain(context.Background()))
	assert.Equal(t, models.DispatchStatusPending, repo.rows[0].Status)
	assert.Equal(t, 1, repo.rows[0].Attempts)
	require.NotNil(t, repo.rows[0].LastError)

	// Second failure exhausts the attempts.
	require.NoError(t, w.Drain(context.Background()))
	assert.Equal(t, models.DispatchStatusFailed, repo.rows[0].Status)
	assert.Equal(t, 2, repo.rows[0].Attempts)

	// A recovered sender gets nothing: the row is terminal.
	emailSender.err = nil
	require.NoError(t, w.Drain(context.Background()))
	assert.Empty(t, emailSender.sent)
}

func TestEnqueueDeduplicatesByIdempotencyKey(t *testing.T) {
	repo := &fakeOutboxRepo{}
	d := pendingDispatch("d1", models.DispatchChannelEmail, "tech@example.com")
	require.NoError(t, repo.Enqueue(d))
	require.NoError(t, repo.Enqueue(pendingDispatch("d1", models.DispatchChannelEmail, "tech@example.com")))

	assert.Len(t, repo.rows, 1)
}
