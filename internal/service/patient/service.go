package patient

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/realtime"
	"github.com/dentalia/clinic-api/internal/repository"
)

const searchLimit = 20

type Service struct {
	repo      repository.PatientRepository
	publisher realtime.Publisher
	logger    zerolog.Logger
}

func NewService(repo repository.PatientRepository, publisher realtime.Publisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// Create registers a patient record. Duplicate cedulas are rejected at the
// database level.
func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	p := &model.Patient{
		Cedula:           req.Cedula,
		Name:             req.Name,
		Guardian:         req.Guardian,
		BirthDate:        req.BirthDate,
		Age:              req.Age,
		Sex:              req.Sex,
		Phone:            req.Phone,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		Email:            req.Email,
		Signature:        req.Signature,
		Odontogram:       req.Odontogram,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := s.saveRelated(ctx, p.ID, req.MedicalHistory, req.Treatments, req.Odontogram); err != nil {
		return nil, err
	}
	p.MedicalHistory = req.MedicalHistory
	p.Treatments = req.Treatments

	s.publisher.Changed(realtime.RoomRecords)
	return p, nil
}

// Get loads a record with its medical history and treatment log.
func (s *Service) Get(ctx context.Context, id int64) (*model.Patient, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.GetMedicalHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	p.MedicalHistory = history

	treatments, err := s.repo.GetTreatments(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Treatments = treatments
	return p, nil
}

// Update applies a partial update and replaces medical history and the
// treatment log when the request carries them.
func (s *Service) Update(ctx context.Context, id int64, req *model.UpdatePatientRequest) (*model.Patient, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Guardian != nil {
		p.Guardian = req.Guardian
	}
	if req.BirthDate != nil {
		p.BirthDate = req.BirthDate
	}
	if req.Age != nil {
		p.Age = req.Age
	}
	if req.Sex != nil {
		p.Sex = req.Sex
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.Address != nil {
		p.Address = req.Address
	}
	if req.EmergencyContact != nil {
		p.EmergencyContact = req.EmergencyContact
	}
	if req.Email != nil {
		p.Email = req.Email
	}
	if req.Signature != nil {
		p.Signature = req.Signature
	}
	if req.Odontogram != nil {
		p.Odontogram = req.Odontogram
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	if req.MedicalHistory != nil {
		if err := s.repo.ReplaceMedicalHistory(ctx, id, req.MedicalHistory); err != nil {
			return nil, err
		}
	}
	if req.Treatments != nil {
		if err := s.repo.ReplaceTreatments(ctx, id, req.Treatments); err != nil {
			return nil, err
		}
	}
	if req.Odontogram != nil {
		s.syncToothSurfaces(ctx, id, req.Odontogram)
	}

	s.publisher.Changed(realtime.RoomRecords)
	return s.Get(ctx, id)
}

// Archive hides a record from listings and search without losing its
// history.
func (s *Service) Archive(ctx context.Context, id int64) error {
	if err := s.repo.Archive(ctx, id); err != nil {
		return err
	}
	s.publisher.Changed(realtime.RoomRecords)
	return nil
}

func (s *Service) List(ctx context.Context) ([]*model.Patient, error) {
	return s.repo.List(ctx)
}

// Search matches the term against cedula and name, excluding archived
// records.
func (s *Service) Search(ctx context.Context, term string) ([]*model.PatientSummary, error) {
	return s.repo.Search(ctx, term, searchLimit)
}

func (s *Service) saveRelated(ctx context.Context, id int64, history map[string]bool, treatments []*model.Treatment, odontogram json.RawMessage) error {
	if history != nil {
		if err := s.repo.ReplaceMedicalHistory(ctx, id, history); err != nil {
			return err
		}
	}
	if len(treatments) > 0 {
		if err := s.repo.ReplaceTreatments(ctx, id, treatments); err != nil {
			return err
		}
	}
	if odontogram != nil {
		s.syncToothSurfaces(ctx, id, odontogram)
	}
	return nil
}

// syncToothSurfaces projects the odontogram blob into queryable per-surface
// rows. The blob stays authoritative; a malformed one is logged and skipped
// rather than failing the record write.
func (s *Service) syncToothSurfaces(ctx context.Context, id int64, raw json.RawMessage) {
	var teeth map[string]map[string]string
	if err := json.Unmarshal(raw, &teeth); err != nil {
		s.logger.Warn().Err(err).Int64("patient_id", id).Msg("odontogram is not indexable, skipping surface sync")
		return
	}

	var surfaces []*model.ToothSurface
	for toothKey, bySurface := range teeth {
		tooth, err := strconv.Atoi(toothKey)
		if err != nil {
			continue
		}
		for surface, condition := range bySurface {
			if condition == "" {
				continue
			}
			surfaces = append(surfaces, &model.ToothSurface{
				PatientID: id,
				Tooth:     tooth,
				Surface:   surface,
				Condition: condition,
			})
		}
	}
	if len(surfaces) == 0 {
		return
	}

	if err := s.repo.UpsertToothSurfaces(ctx, id, surfaces); err != nil {
		s.logger.Warn().Err(err).Int64("patient_id", id).Msg("failed to sync tooth surfaces")
	}
}
