package catalog

import (
	"context"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/realtime"
	"github.com/dentalia/clinic-api/internal/repository"
)

// Service manages the admin-editable catalogs: the medical history
// questionnaire fields and the treatment options list.
type Service struct {
	repo      repository.CatalogRepository
	publisher realtime.Publisher
}

func NewService(repo repository.CatalogRepository, publisher realtime.Publisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

func (s *Service) ListMedicalHistoryFields(ctx context.Context, activeOnly bool) ([]*model.MedicalHistoryField, error) {
	return s.repo.ListMedicalHistoryFields(ctx, activeOnly)
}

func (s *Service) CreateMedicalHistoryField(ctx context.Context, f *model.MedicalHistoryField) error {
	if err := s.repo.CreateMedicalHistoryField(ctx, f); err != nil {
		return err
	}
	s.publisher.Changed(realtime.RoomConfig)
	return nil
}

func (s *Service) UpdateMedicalHistoryField(ctx context.Context, f *model.MedicalHistoryField) error {
	if err := s.repo.UpdateMedicalHistoryField(ctx, f); err != nil {
		return err
	}
	s.publisher.Changed(realtime.RoomConfig)
	return nil
}

func (s *Service) GetMedicalHistoryField(ctx context.Context, id int64) (*model.MedicalHistoryField, error) {
	return s.repo.GetMedicalHistoryField(ctx, id)
}

// DeleteMedicalHistoryField removes a questionnaire field. Stored patient
// answers for the field are kept; they simply stop rendering.
func (s *Service) DeleteMedicalHistoryField(ctx context.Context, id int64) error {
	if err := s.repo.DeleteMedicalHistoryField(ctx, id); err != nil {
		return err
	}
	s.publisher.Changed(realtime.RoomConfig)
	return nil
}

func (s *Service) ListTreatmentOptions(ctx context.Context, activeOnly bool) ([]*model.TreatmentOption, error) {
	return s.repo.ListTreatmentOptions(ctx, activeOnly)
}

func (s *Service) CreateTreatmentOption(ctx context.Context, o *model.TreatmentOption) error {
	if err := s.repo.CreateTreatmentOption(ctx, o); err != nil {
		return err
	}
	s.publisher.Changed(realtime.RoomConfig)
	return nil
}

func (s *Service) UpdateTreatmentOption(ctx context.Context, o *model.TreatmentOption) error {
	if err := s.repo.UpdateTreatmentOption(ctx, o); err != nil {
		return err
	}
	s.publisher.Changed(realtime.RoomConfig)
	return nil
}

func (s *Service) GetTreatmentOption(ctx context.Context, id int64) (*model.TreatmentOption, error) {
	return s.repo.GetTreatmentOption(ctx, id)
}

func (s *Service) DeleteTreatmentOption(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTreatmentOption(ctx, id); err != nil {
		return err
	}
	s.publisher.Changed(realtime.RoomConfig)
	return nil
}
