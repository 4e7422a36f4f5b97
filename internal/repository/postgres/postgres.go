package postgres

import (
	"github.com/dentalia/clinic-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

type blockedDayRepository struct {
	BaseRepository
}

type patientRepository struct {
	BaseRepository
}

type patientRequestRepository struct {
	BaseRepository
}

type notificationRepository struct {
	BaseRepository
}

type userRepository struct {
	BaseRepository
}

type catalogRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func NewBlockedDayRepository(base BaseRepository) repository.BlockedDayRepository {
	return &blockedDayRepository{base}
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

func NewPatientRequestRepository(base BaseRepository) repository.PatientRequestRepository {
	return &patientRequestRepository{base}
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func NewCatalogRepository(base BaseRepository) repository.CatalogRepository {
	return &catalogRepository{base}
}
