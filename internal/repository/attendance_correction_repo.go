package repository

import (
	"errors"

	"fieldforce-attendance/internal/apperror"
	"fieldforce-attendance/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AttendanceCorrectionRepository interface {
	Create(correction *models.AttendanceCorrection) error
	Update(correction *models.AttendanceCorrection) error
	GetByID(id uint) (*models.AttendanceCorrection, error)
	ListByRecord(attendanceRecordID uint) ([]*models.AttendanceCorrection, error)
	ListApprovedByRecord(attendanceRecordID uint) ([]*models.AttendanceCorrection, error)
}

type GormAttendanceCorrectionRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAttendanceCorrectionRepository(db *gorm.DB) (*GormAttendanceCorrectionRepository, error) {
	logger := newLogger()

	// Автомиграция
	if err := db.AutoMigrate(&models.AttendanceCorrection{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate attendance_corrections table")
		return nil, err
	}

	return &GormAttendanceCorrectionRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormAttendanceCorrectionRepository) Create(correction *models.AttendanceCorrection) error {
	r.logger.WithFields(logrus.Fields{
		"attendance_record_id": correction.AttendanceRecordID,
		"submitted_by":         correction.SubmittedBy,
	}).Info("Creating attendance correction")

	if !correction.IsValid() {
		r.logger.WithField("attendance_record_id", correction.AttendanceRecordID).
			Warn("Invalid attendance correction data")
		return apperror.New(apperror.KindPreconditionFailed, "invalid attendance correction data")
	}

	result := r.db.Create(correction)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create attendance correction")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":        correction.ID,
		"reference": correction.Reference,
	}).Info("Attendance correction created successfully")

	return nil
}

func (r *GormAttendanceCorrectionRepository) Update(correction *models.AttendanceCorrection) error {
	r.logger.WithFields(logrus.Fields{
		"id":     correction.ID,
		"status": correction.Status,
	}).Info("Updating attendance correction")

	if !correction.IsValid() {
		return apperror.New(apperror.KindPreconditionFailed, "invalid attendance correction data")
	}

	result := r.db.Save(correction)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update attendance correction")
		return result.Error
	}

	return nil
}

func (r *GormAttendanceCorrectionRepository) GetByID(id uint) (*models.AttendanceCorrection, error) {
	var correction models.AttendanceCorrection
	result := r.db.First(&correction, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Attendance correction not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get attendance correction by ID")
		return nil, result.Error
	}

	return &correction, nil
}

func (r *GormAttendanceCorrectionRepository) ListByRecord(attendanceRecordID uint) ([]*models.AttendanceCorrection, error) {
	var corrections []*models.AttendanceCorrection

	result := r.db.Where("attendance_record_id = ?", attendanceRecordID).
		Order("created_at, id").
		Find(&corrections)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list attendance corrections")
		return nil, result.Error
	}

	return corrections, nil
}

func (r *GormAttendanceCorrectionRepository) ListApprovedByRecord(attendanceRecordID uint) ([]*models.AttendanceCorrection, error) {
	var corrections []*models.AttendanceCorrection

	// Порядок важен: более поздние одобренные дельты перекрывают ранние
	result := r.db.Where("attendance_record_id = ? AND status = ?",
		attendanceRecordID, models.CorrectionApproved).
		Order("reviewed_at, id").
		Find(&corrections)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list approved attendance corrections")
		return nil, result.Error
	}

	return corrections, nil
}
