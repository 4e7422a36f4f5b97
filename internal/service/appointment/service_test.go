package appointment

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/realtime"
	"github.com/dentalia/clinic-api/internal/service/notification"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
)

// fakeAppointmentRepo mirrors the transactional conflict semantics of the
// real repository against an in-memory slice.
type fakeAppointmentRepo struct {
	appointments []*model.Appointment
	blockedDays  map[string]bool
	nextID       int64

	// joinEmail stands in for the patient-contact join of the real Get.
	joinEmail string
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{blockedDays: map[string]bool{}, nextID: 1}
}

func (r *fakeAppointmentRepo) findConflict(date model.Date, start, end model.TimeOfDay, excludeID *int64) *model.Appointment {
	for _, apt := range r.appointments {
		if !apt.Date.Equal(date) || apt.Status == model.AppointmentStatusCancelled {
			continue
		}
		if excludeID != nil && apt.ID == *excludeID {
			continue
		}
		if model.Overlaps(start, end, apt.StartTime, apt.EndTime) {
			return apt
		}
	}
	return nil
}

func (r *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	if r.blockedDays[apt.Date.String()] {
		return apperrors.DayBlocked(apt.Date.String())
	}
	if c := r.findConflict(apt.Date, apt.StartTime, apt.EndTime, nil); c != nil {
		return apperrors.SlotTaken("slot conflicts with an existing appointment")
	}
	apt.ID = r.nextID
	r.nextID++
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = apt.CreatedAt
	copied := *apt
	r.appointments = append(r.appointments, &copied)
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id int64) (*model.Appointment, error) {
	for _, apt := range r.appointments {
		if apt.ID == id {
			copied := *apt
			if copied.PatientEmail == "" {
				copied.PatientEmail = r.joinEmail
			}
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("appointment", nil)
}

func (r *fakeAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error {
	idx := -1
	for i, existing := range r.appointments {
		if existing.ID == apt.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperrors.NotFound("appointment", nil)
	}

	// The real repository re-runs the booking checks only when the slot moves.
	current := r.appointments[idx]
	moved := !current.Date.Equal(apt.Date) ||
		current.StartTime != apt.StartTime ||
		current.EndTime != apt.EndTime
	if moved {
		if r.blockedDays[apt.Date.String()] {
			return apperrors.DayBlocked(apt.Date.String())
		}
		if c := r.findConflict(apt.Date, apt.StartTime, apt.EndTime, &apt.ID); c != nil {
			return apperrors.SlotTaken("slot conflicts with an existing appointment")
		}
	}

	copied := *apt
	copied.UpdatedAt = time.Now()
	r.appointments[idx] = &copied
	return nil
}

func (r *fakeAppointmentRepo) UpdateStatus(_ context.Context, id int64, status model.AppointmentStatus) error {
	for _, apt := range r.appointments {
		if apt.ID == id {
			apt.Status = status
			return nil
		}
	}
	return apperrors.NotFound("appointment", nil)
}

func (r *fakeAppointmentRepo) List(_ context.Context, date *model.Date) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if date == nil || apt.Date.Equal(*date) {
			out = append(out, apt)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListByDateWithContact(_ context.Context, date model.Date) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if !apt.Date.Equal(date) || apt.PatientEmail == "" {
			continue
		}
		if apt.Status == model.AppointmentStatusCancelled || apt.Status == model.AppointmentStatusCancellationRequested {
			continue
		}
		out = append(out, apt)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) CheckConflict(_ context.Context, date model.Date, start, end model.TimeOfDay, excludeID *int64) (*model.Appointment, error) {
	return r.findConflict(date, start, end, excludeID), nil
}

func (r *fakeAppointmentRepo) LastUpdatedAt(context.Context) (*time.Time, error) {
	return nil, nil
}

type fakePatientRepo struct {
	ids map[int64]bool
}

func (r *fakePatientRepo) Exists(_ context.Context, id int64) (bool, error) { return r.ids[id], nil }

func (r *fakePatientRepo) Create(context.Context, *model.Patient) error { return nil }
func (r *fakePatientRepo) Get(context.Context, int64) (*model.Patient, error) {
	return nil, apperrors.NotFound("patient", nil)
}
func (r *fakePatientRepo) Update(context.Context, *model.Patient) error { return nil }
func (r *fakePatientRepo) Archive(context.Context, int64) error         { return nil }
func (r *fakePatientRepo) List(context.Context) ([]*model.Patient, error) {
	return nil, nil
}
func (r *fakePatientRepo) Search(context.Context, string, int) ([]*model.PatientSummary, error) {
	return nil, nil
}
func (r *fakePatientRepo) ReplaceMedicalHistory(context.Context, int64, map[string]bool) error {
	return nil
}
func (r *fakePatientRepo) GetMedicalHistory(context.Context, int64) (map[string]bool, error) {
	return nil, nil
}
func (r *fakePatientRepo) ReplaceTreatments(context.Context, int64, []*model.Treatment) error {
	return nil
}
func (r *fakePatientRepo) GetTreatments(context.Context, int64) ([]*model.Treatment, error) {
	return nil, nil
}
func (r *fakePatientRepo) UpsertToothSurfaces(context.Context, int64, []*model.ToothSurface) error {
	return nil
}

type fakeNotificationRepo struct {
	created []*model.Notification
	failErr error
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if r.failErr != nil {
		return r.failErr
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

func newTestService(aptRepo *fakeAppointmentRepo, notifRepo *fakeNotificationRepo) *Service {
	return NewService(
		aptRepo,
		&fakePatientRepo{ids: map[int64]bool{1: true}},
		notification.NewService(notifRepo),
		realtime.NopPublisher{},
		nil,
		zerolog.Nop(),
	)
}

func createReq(date string, start, end model.TimeOfDay) *model.CreateAppointmentRequest {
	d, _ := model.ParseDate(date)
	return &model.CreateAppointmentRequest{
		PatientID: 1,
		Date:      d,
		StartTime: start,
		EndTime:   end,
	}
}

func TestCreateAppointment(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, &fakeNotificationRepo{})

	apt, err := svc.Create(context.Background(), createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), apt.ID)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
}

func TestCreateAppointmentRejectsOverlap(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, &fakeNotificationRepo{})
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(9, 30), model.NewTimeOfDay(10, 30)))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrSlotTaken))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.StatusCode())
}

func TestCreateAppointmentAllowsBackToBack(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, &fakeNotificationRepo{})
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(10, 0), model.NewTimeOfDay(11, 0)))
	assert.NoError(t, err)
}

func TestCreateAppointmentReusesCancelledSlot(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, &fakeNotificationRepo{})
	ctx := context.Background()

	first, err := svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, first.ID))

	_, err = svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	assert.NoError(t, err)
}

func TestCreateAppointmentRejectsBlockedDay(t *testing.T) {
	repo := newFakeAppointmentRepo()
	repo.blockedDays["2026-09-01"] = true
	svc := newTestService(repo, &fakeNotificationRepo{})

	_, err := svc.Create(context.Background(), createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrDayBlocked))
}

func TestCreateAppointmentRejectsInvertedWindow(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo(), &fakeNotificationRepo{})

	_, err := svc.Create(context.Background(), createReq("2026-09-01", model.NewTimeOfDay(10, 0), model.NewTimeOfDay(9, 0)))
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	_, err = svc.Create(context.Background(), createReq("2026-09-01", model.NewTimeOfDay(10, 0), model.NewTimeOfDay(10, 0)))
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestCreateAppointmentRejectsUnknownPatient(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo(), &fakeNotificationRepo{})

	req := createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0))
	req.PatientID = 99
	_, err := svc.Create(context.Background(), req)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestCreateAppointmentSurvivesNotificationFailure(t *testing.T) {
	repo := newFakeAppointmentRepo()
	repo.joinEmail = "ana@example.com"
	notifRepo := &fakeNotificationRepo{failErr: errors.New("outbox down")}
	svc := newTestService(repo, notifRepo)

	apt, err := svc.Create(context.Background(), createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	require.NoError(t, err)
	assert.NotZero(t, apt.ID)
}

func TestUpdateNotifiesOnlyWhenScheduleChanges(t *testing.T) {
	repo := newFakeAppointmentRepo()
	notifRepo := &fakeNotificationRepo{}
	svc := newTestService(repo, notifRepo)
	ctx := context.Background()

	apt, err := svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	require.NoError(t, err)
	// Patient has no email on file, so create enqueues nothing.
	baseline := len(notifRepo.created)

	// Give the stored row an email so reschedule notices have a recipient.
	repo.appointments[0].PatientEmail = "ana@example.com"
	repo.appointments[0].PatientName = "Ana"

	notes := "bring x-rays"
	_, err = svc.Update(ctx, apt.ID, &model.UpdateAppointmentRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Len(t, notifRepo.created, baseline, "notes-only edit must not notify")

	newStart := model.NewTimeOfDay(11, 0)
	newEnd := model.NewTimeOfDay(12, 0)
	_, err = svc.Update(ctx, apt.ID, &model.UpdateAppointmentRequest{StartTime: &newStart, EndTime: &newEnd})
	require.NoError(t, err)
	require.Len(t, notifRepo.created, baseline+1)
	assert.Equal(t, model.NotificationRescheduled, notifRepo.created[baseline].Type)
}

func TestUpdateRejectsConflictingMove(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, &fakeNotificationRepo{})
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	require.NoError(t, err)
	second, err := svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(11, 0), model.NewTimeOfDay(12, 0)))
	require.NoError(t, err)

	newStart := model.NewTimeOfDay(9, 30)
	newEnd := model.NewTimeOfDay(10, 30)
	_, err = svc.Update(ctx, second.ID, &model.UpdateAppointmentRequest{StartTime: &newStart, EndTime: &newEnd})
	assert.True(t, apperrors.Is(err, apperrors.ErrSlotTaken))
}

func TestUpdateAllowsKeepingOwnSlot(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, &fakeNotificationRepo{})
	ctx := context.Background()

	apt, err := svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	require.NoError(t, err)

	// Shrinking within its own window conflicts only with itself.
	newEnd := model.NewTimeOfDay(9, 30)
	_, err = svc.Update(ctx, apt.ID, &model.UpdateAppointmentRequest{EndTime: &newEnd})
	assert.NoError(t, err)
}

func TestUpdateStatusSucceedsAfterDayBlocked(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, &fakeNotificationRepo{})
	ctx := context.Background()

	apt, err := svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	require.NoError(t, err)

	// Blocking a day stops new bookings, not the lifecycle of the
	// appointments already on it.
	repo.blockedDays["2026-09-01"] = true

	completed := model.AppointmentStatusCompleted
	updated, err := svc.Update(ctx, apt.ID, &model.UpdateAppointmentRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, updated.Status)

	notes := "paid in full"
	_, err = svc.Update(ctx, apt.ID, &model.UpdateAppointmentRequest{Notes: &notes})
	assert.NoError(t, err)
}

func TestUpdateMoveToBlockedDayRejected(t *testing.T) {
	repo := newFakeAppointmentRepo()
	repo.blockedDays["2026-09-02"] = true
	svc := newTestService(repo, &fakeNotificationRepo{})
	ctx := context.Background()

	apt, err := svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	require.NoError(t, err)

	blocked, _ := model.ParseDate("2026-09-02")
	_, err = svc.Update(ctx, apt.ID, &model.UpdateAppointmentRequest{Date: &blocked})
	assert.True(t, apperrors.Is(err, apperrors.ErrDayBlocked))
}

func TestCreateAppointmentAtMidnight(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo(), &fakeNotificationRepo{})

	apt, err := svc.Create(context.Background(), createReq("2026-09-01", model.NewTimeOfDay(0, 0), model.NewTimeOfDay(0, 30)))
	require.NoError(t, err)
	assert.Equal(t, model.TimeOfDay(0), apt.StartTime)
}

func TestCreateAppointmentRequiresDate(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo(), &fakeNotificationRepo{})

	req := createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0))
	req.Date = model.Date{}
	_, err := svc.Create(context.Background(), req)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestRandomizedIntervalsNeverOverlap(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, &fakeNotificationRepo{})
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	var accepted []*model.Appointment
	for i := 0; i < 300; i++ {
		start := model.TimeOfDay(rng.Intn(24*60 - 15))
		end := start + model.TimeOfDay(15*(1+rng.Intn(8)))
		if end > 24*60 {
			end = 24 * 60
		}

		apt, err := svc.Create(ctx, createReq("2026-09-01", start, end))
		if err != nil {
			require.True(t, apperrors.Is(err, apperrors.ErrSlotTaken), "unexpected error: %v", err)
			continue
		}
		accepted = append(accepted, apt)
	}
	require.NotEmpty(t, accepted)

	for i := 0; i < len(accepted); i++ {
		for j := i + 1; j < len(accepted); j++ {
			a, b := accepted[i], accepted[j]
			assert.False(t,
				model.Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime),
				"accepted slots %s-%s and %s-%s overlap",
				a.StartTime, a.EndTime, b.StartTime, b.EndTime)
		}
	}
}

func TestCancelIsSoft(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, &fakeNotificationRepo{})
	ctx := context.Background()

	apt, err := svc.Create(ctx, createReq("2026-09-01", model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)))
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, apt.ID))

	stored, err := svc.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)
}

func TestCancelUnknownAppointment(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo(), &fakeNotificationRepo{})
	err := svc.Cancel(context.Background(), 42)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
