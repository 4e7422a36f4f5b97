package patient

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/realtime"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
)

type fakePatientRepo struct {
	patients   map[int64]*model.Patient
	nextID     int64
	history    map[int64]map[string]bool
	treatments map[int64][]*model.Treatment

	// surfaces mirrors the tooth_surfaces table: one row per
	// (patient, tooth, surface), keyed the way the primary key is.
	surfaces map[int64]map[[2]interface{}]string
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{
		patients:   map[int64]*model.Patient{},
		history:    map[int64]map[string]bool{},
		treatments: map[int64][]*model.Treatment{},
		surfaces:   map[int64]map[[2]interface{}]string{},
	}
}

func (r *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	for _, existing := range r.patients {
		if existing.Cedula == p.Cedula {
			return apperrors.Conflict("a record with this cedula already exists")
		}
	}
	r.nextID++
	p.ID = r.nextID
	copied := *p
	r.patients[p.ID] = &copied
	return nil
}

func (r *fakePatientRepo) Get(_ context.Context, id int64) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	copied := *p
	return &copied, nil
}

func (r *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	if _, ok := r.patients[p.ID]; !ok {
		return apperrors.NotFound("patient", nil)
	}
	copied := *p
	r.patients[p.ID] = &copied
	return nil
}

func (r *fakePatientRepo) Archive(_ context.Context, id int64) error {
	p, ok := r.patients[id]
	if !ok {
		return apperrors.NotFound("patient", nil)
	}
	p.Archived = true
	return nil
}

func (r *fakePatientRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := r.patients[id]
	return ok, nil
}

func (r *fakePatientRepo) List(_ context.Context) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range r.patients {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePatientRepo) Search(context.Context, string, int) ([]*model.PatientSummary, error) {
	return nil, nil
}

func (r *fakePatientRepo) ReplaceMedicalHistory(_ context.Context, patientID int64, values map[string]bool) error {
	r.history[patientID] = values
	return nil
}

func (r *fakePatientRepo) GetMedicalHistory(_ context.Context, patientID int64) (map[string]bool, error) {
	return r.history[patientID], nil
}

func (r *fakePatientRepo) ReplaceTreatments(_ context.Context, patientID int64, treatments []*model.Treatment) error {
	r.treatments[patientID] = treatments
	return nil
}

func (r *fakePatientRepo) GetTreatments(_ context.Context, patientID int64) ([]*model.Treatment, error) {
	return r.treatments[patientID], nil
}

func (r *fakePatientRepo) UpsertToothSurfaces(_ context.Context, patientID int64, surfaces []*model.ToothSurface) error {
	rows, ok := r.surfaces[patientID]
	if !ok {
		rows = map[[2]interface{}]string{}
		r.surfaces[patientID] = rows
	}
	for _, s := range surfaces {
		rows[[2]interface{}{s.Tooth, s.Surface}] = s.Condition
	}
	return nil
}

func (r *fakePatientRepo) surfaceRows(patientID int64) []model.ToothSurface {
	var out []model.ToothSurface
	for key, condition := range r.surfaces[patientID] {
		out = append(out, model.ToothSurface{
			PatientID: patientID,
			Tooth:     key[0].(int),
			Surface:   key[1].(string),
			Condition: condition,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tooth != out[j].Tooth {
			return out[i].Tooth < out[j].Tooth
		}
		return out[i].Surface < out[j].Surface
	})
	return out
}

func newTestService(repo *fakePatientRepo) *Service {
	return NewService(repo, realtime.NopPublisher{}, zerolog.Nop())
}

func createPatient(t *testing.T, svc *Service, odontogram string) *model.Patient {
	t.Helper()
	req := &model.CreatePatientRequest{
		Cedula: "001-1234567-8901A",
		Name:   "Ana Morales",
	}
	if odontogram != "" {
		req.Odontogram = json.RawMessage(odontogram)
	}
	p, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	return p
}

func TestCreateSyncsToothSurfaces(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestService(repo)

	p := createPatient(t, svc, `{
		"11": {"vestibular": "caries", "mesial": ""},
		"26": {"oclusal": "sealant"},
		"notes": {"oclusal": "ignored"}
	}`)

	rows := repo.surfaceRows(p.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, model.ToothSurface{PatientID: p.ID, Tooth: 11, Surface: "vestibular", Condition: "caries"}, rows[0])
	assert.Equal(t, model.ToothSurface{PatientID: p.ID, Tooth: 26, Surface: "oclusal", Condition: "sealant"}, rows[1])
}

func TestUpdateReplacesToothSurfaceCondition(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	p := createPatient(t, svc, `{"11": {"vestibular": "caries"}}`)

	_, err := svc.Update(ctx, p.ID, &model.UpdatePatientRequest{
		Odontogram: json.RawMessage(`{"11": {"vestibular": "filling"}}`),
	})
	require.NoError(t, err)

	rows := repo.surfaceRows(p.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, "filling", rows[0].Condition)
}

func TestMalformedOdontogramDoesNotFailWrite(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestService(repo)

	p := createPatient(t, svc, `["not", "a", "tooth", "map"]`)

	assert.Empty(t, repo.surfaceRows(p.ID))
	stored, err := repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `["not", "a", "tooth", "map"]`, string(stored.Odontogram))
}

func TestArchiveHidesRecord(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	p := createPatient(t, svc, "")
	require.NoError(t, svc.Archive(ctx, p.ID))

	stored, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Archived)
}

func TestCreateDuplicateCedulaIsConflict(t *testing.T) {
	repo := newFakePatientRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	createPatient(t, svc, "")

	_, err := svc.Create(ctx, &model.CreatePatientRequest{
		Cedula: "001-1234567-8901A",
		Name:   "Ana M. Duplicada",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}
