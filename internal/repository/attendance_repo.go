package repository

import (
	"errors"
	"time"

	"fieldforce-attendance/internal/apperror"
	"fieldforce-attendance/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendanceRepository interface {
	Create(record *models.AttendanceRecord) error
	UpdateWithVersion(record *models.AttendanceRecord, expectedVersion uint) error
	GetByID(id uint) (*models.AttendanceRecord, error)
	GetByEmployeeProjectDate(employeeID, projectID uint, date time.Time) (*models.AttendanceRecord, error)
	GetByEmployeeAndDate(employeeID uint, date time.Time) ([]*models.AttendanceRecord, error)
}

type GormAttendanceRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAttendanceRepository(db *gorm.DB) (*GormAttendanceRepository, error) {
	logger := newLogger()

	// Автомиграция
	if err := db.AutoMigrate(&models.AttendanceRecord{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate attendance_records table")
		return nil, err
	}

	logger.Info("Attendance repository initialized")

	return &GormAttendanceRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormAttendanceRepository) Create(record *models.AttendanceRecord) error {
	r.logger.WithFields(logrus.Fields{
		"employee_id": record.EmployeeID,
		"project_id":  record.ProjectID,
		"date":        dateKey(record.WorkDate),
	}).Info("Creating attendance record")

	if !record.IsValid() {
		r.logger.WithFields(logrus.Fields{
			"employee_id": record.EmployeeID,
			"project_id":  record.ProjectID,
		}).Warn("Invalid attendance record data")
		return apperror.New(apperror.KindPreconditionFailed, "invalid attendance record data")
	}

	record.WorkDate = DateOnly(record.WorkDate)
	record.Version = 1

	result := r.db.Create(record)
	if result.Error != nil {
		// Проигравший гонки двойного clock-in упирается в уникальный
		// индекс (employee_id, project_id, work_date)
		if isDuplicateKey(result.Error) {
			r.logger.WithFields(logrus.Fields{
				"employee_id": record.EmployeeID,
				"project_id":  record.ProjectID,
				"date":        dateKey(record.WorkDate),
			}).Warn("Attendance record already exists for this day")
			return apperror.New(apperror.KindConcurrentModification,
				"attendance record was created concurrently, re-read current state")
		}
		r.logger.WithError(result.Error).Error("Failed to create attendance record")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":          record.ID,
		"employee_id": record.EmployeeID,
		"status":      record.Status,
	}).Info("Attendance record created successfully")

	return nil
}

// UpdateWithVersion сохраняет запись только если версия в базе совпадает
// с прочитанной. Несовпадение означает конкурентное изменение.
func (r *GormAttendanceRepository) UpdateWithVersion(record *models.AttendanceRecord, expectedVersion uint) error {
	r.logger.WithFields(logrus.Fields{
		"id":      record.ID,
		"status":  record.Status,
		"version": expectedVersion,
	}).Info("Updating attendance record")

	if !record.IsValid() {
		r.logger.WithField("id", record.ID).Warn("Invalid attendance record data for update")
		return apperror.New(apperror.KindPreconditionFailed, "invalid attendance record data")
	}

	record.Version = expectedVersion + 1
	record.UpdatedAt = time.Now()

	result := r.db.Model(&models.AttendanceRecord{}).
		Where("id = ? AND version = ?", record.ID, expectedVersion).
		Select("*").
		Omit("created_at", clause.Associations).
		Updates(record)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update attendance record")
		return result.Error
	}

	if result.RowsAffected == 0 {
		r.logger.WithFields(logrus.Fields{
			"id":      record.ID,
			"version": expectedVersion,
		}).Warn("Attendance record version conflict")
		return apperror.New(apperror.KindConcurrentModification,
			"attendance record was modified concurrently, re-read current state")
	}

	return nil
}

func (r *GormAttendanceRepository) GetByID(id uint) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	result := r.db.First(&record, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Attendance record not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get attendance record by ID")
		return nil, result.Error
	}

	return &record, nil
}

func (r *GormAttendanceRepository) GetByEmployeeProjectDate(employeeID, projectID uint, date time.Time) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	result := r.db.Where("employee_id = ? AND project_id = ? AND work_date = ?",
		employeeID, projectID, DateOnly(date)).First(&record)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithFields(logrus.Fields{
			"employee_id": employeeID,
			"project_id":  projectID,
			"date":        dateKey(date),
		}).Debug("Attendance record not found for employee/project/date")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get attendance record by employee/project/date")
		return nil, result.Error
	}

	return &record, nil
}

func (r *GormAttendanceRepository) GetByEmployeeAndDate(employeeID uint, date time.Time) ([]*models.AttendanceRecord, error) {
	var records []*models.AttendanceRecord

	result := r.db.Where("employee_id = ? AND work_date = ?", employeeID, DateOnly(date)).
		Order("project_id").
		Find(&records)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get attendance records by employee and date")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"date":        dateKey(date),
		"count":       len(records),
	}).Debug("Retrieved attendance records by employee and date")

	return records, nil
}
