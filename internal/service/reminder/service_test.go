package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/realtime"
	"github.com/dentalia/clinic-api/internal/service/notification"
	"github.com/dentalia/clinic-api/internal/service/patientrequest"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
)

type fakeAppointmentRepo struct {
	byDate map[string][]*model.Appointment
}

func (r *fakeAppointmentRepo) ListByDateWithContact(_ context.Context, date model.Date) ([]*model.Appointment, error) {
	return r.byDate[date.String()], nil
}

func (r *fakeAppointmentRepo) Create(context.Context, *model.Appointment) error { return nil }
func (r *fakeAppointmentRepo) Get(context.Context, int64) (*model.Appointment, error) {
	return nil, apperrors.NotFound("appointment", nil)
}
func (r *fakeAppointmentRepo) Update(context.Context, *model.Appointment) error { return nil }
func (r *fakeAppointmentRepo) UpdateStatus(context.Context, int64, model.AppointmentStatus) error {
	return nil
}
func (r *fakeAppointmentRepo) List(context.Context, *model.Date) ([]*model.Appointment, error) {
	return nil, nil
}
func (r *fakeAppointmentRepo) CheckConflict(context.Context, model.Date, model.TimeOfDay, model.TimeOfDay, *int64) (*model.Appointment, error) {
	return nil, nil
}
func (r *fakeAppointmentRepo) LastUpdatedAt(context.Context) (*time.Time, error) { return nil, nil }

type fakeRequestRepo struct {
	requests []*model.PatientRequest
	nextID   int64
}

func (r *fakeRequestRepo) Create(_ context.Context, req *model.PatientRequest) error {
	r.nextID++
	req.ID = r.nextID
	// Recover the injected clock from ExpiresAt so IssuedOn sees the
	// simulated date rather than the host's wall clock.
	req.CreatedAt = req.ExpiresAt.Add(-patientrequest.TokenTTL)
	copied := *req
	r.requests = append(r.requests, &copied)
	return nil
}

func (r *fakeRequestRepo) Consume(context.Context, string, model.PatientRequestKind, time.Time) (*model.PatientRequest, error) {
	return nil, apperrors.InvalidToken()
}

func (r *fakeRequestRepo) IssuedOn(_ context.Context, appointmentID int64, kind model.PatientRequestKind, day model.Date) (bool, error) {
	for _, req := range r.requests {
		if req.AppointmentID == appointmentID && req.Kind == kind && model.DateOf(req.CreatedAt).Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

type fakeNotificationRepo struct {
	created []*model.Notification
	failFor map[string]error
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if err, ok := r.failFor[n.Recipient]; ok {
		return err
	}
	n.ID = uuid.New()
	r.created = append(r.created, n)
	return nil
}

func (r *fakeNotificationRepo) ClaimPending(context.Context, int) ([]*model.Notification, error) {
	return nil, nil
}
func (r *fakeNotificationRepo) MarkProcessed(context.Context, uuid.UUID) error      { return nil }
func (r *fakeNotificationRepo) MarkFailed(context.Context, uuid.UUID, string) error { return nil }
func (r *fakeNotificationRepo) CountPending(context.Context) (int, error)           { return 0, nil }

func appointmentOn(id int64, date string, email string) *model.Appointment {
	d, _ := model.ParseDate(date)
	return &model.Appointment{
		ID:           id,
		PatientID:    id,
		Date:         d,
		StartTime:    model.NewTimeOfDay(9, 0),
		EndTime:      model.NewTimeOfDay(10, 0),
		Status:       model.AppointmentStatusScheduled,
		PatientName:  "Ana",
		PatientEmail: email,
	}
}

func newTestService(aptRepo *fakeAppointmentRepo, notifRepo *fakeNotificationRepo) (*Service, *fakeRequestRepo) {
	requests := &fakeRequestRepo{}
	requestSvc := patientrequest.NewService(requests, aptRepo, realtime.NopPublisher{}, zerolog.Nop())
	svc := NewService(aptRepo, requestSvc, notification.NewService(notifRepo), nil, zerolog.Nop())
	return svc, requests
}

func TestProcessIssuesReminders(t *testing.T) {
	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	aptRepo := &fakeAppointmentRepo{byDate: map[string][]*model.Appointment{
		"2026-09-02": {
			appointmentOn(1, "2026-09-02", "ana@example.com"),
			appointmentOn(2, "2026-09-02", "luis@example.com"),
		},
	}}
	notifRepo := &fakeNotificationRepo{}
	svc, requests := newTestService(aptRepo, notifRepo)

	result, err := svc.Process(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Issued)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, Entry{AppointmentID: 1, Outcome: OutcomeIssued}, result.Entries[0])
	assert.Equal(t, Entry{AppointmentID: 2, Outcome: OutcomeIssued}, result.Entries[1])

	// Each reminder carries a cancel and a reschedule token.
	assert.Len(t, requests.requests, 4)
	require.Len(t, notifRepo.created, 2)
	for _, n := range notifRepo.created {
		assert.Equal(t, model.NotificationReminder, n.Type)
	}
}

func TestProcessIsIdempotentPerDay(t *testing.T) {
	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	aptRepo := &fakeAppointmentRepo{byDate: map[string][]*model.Appointment{
		"2026-09-02": {appointmentOn(1, "2026-09-02", "ana@example.com")},
	}}
	notifRepo := &fakeNotificationRepo{}
	svc, _ := newTestService(aptRepo, notifRepo)
	ctx := context.Background()

	first, err := svc.Process(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Issued)

	second, err := svc.Process(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Issued)
	assert.Equal(t, 1, second.Skipped)
	require.Len(t, second.Entries, 1)
	assert.Equal(t, OutcomeSkipped, second.Entries[0].Outcome)
	assert.NotEmpty(t, second.Entries[0].Reason)
	assert.Len(t, notifRepo.created, 1, "retried batch must not mail twice")
}

func TestProcessCountsFailuresWithoutAborting(t *testing.T) {
	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	aptRepo := &fakeAppointmentRepo{byDate: map[string][]*model.Appointment{
		"2026-09-02": {
			appointmentOn(1, "2026-09-02", "broken@example.com"),
			appointmentOn(2, "2026-09-02", "ana@example.com"),
		},
	}}
	notifRepo := &fakeNotificationRepo{failFor: map[string]error{
		"broken@example.com": errors.New("outbox down"),
	}}
	svc, _ := newTestService(aptRepo, notifRepo)

	result, err := svc.Process(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Issued)
	assert.Equal(t, 1, result.Failed)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, OutcomeFailed, result.Entries[0].Outcome)
	assert.Contains(t, result.Entries[0].Reason, "outbox down")
	assert.Equal(t, OutcomeIssued, result.Entries[1].Outcome)
}

func TestProcessEmptyDay(t *testing.T) {
	svc, _ := newTestService(&fakeAppointmentRepo{byDate: map[string][]*model.Appointment{}}, &fakeNotificationRepo{})

	result, err := svc.Process(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, result.Issued)
	assert.Zero(t, result.Failed)
}
