package repository

import (
	"errors"
	"time"

	"fieldforce-attendance/internal/apperror"
	"fieldforce-attendance/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TaskAssignmentRepository interface {
	Create(assignment *models.TaskAssignment) error
	UpdateWithVersion(assignment *models.TaskAssignment, expectedVersion uint) error
	GetByID(id uint) (*models.TaskAssignment, error)
	GetByEmployeeAndDate(employeeID uint, date time.Time) ([]*models.TaskAssignment, error)
	HasActiveLowerSequence(employeeID, projectID uint, date time.Time, sequence int) (bool, error)
}

type GormTaskAssignmentRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormTaskAssignmentRepository(db *gorm.DB) (*GormTaskAssignmentRepository, error) {
	logger := newLogger()

	// Автомиграция
	if err := db.AutoMigrate(&models.TaskAssignment{}, &models.TaskPauseEntry{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate task assignment tables")
		return nil, err
	}

	logger.Info("Task assignment repository initialized")

	return &GormTaskAssignmentRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormTaskAssignmentRepository) Create(assignment *models.TaskAssignment) error {
	r.logger.WithFields(logrus.Fields{
		"employee_id": assignment.EmployeeID,
		"project_id":  assignment.ProjectID,
		"task_id":     assignment.TaskID,
		"date":        dateKey(assignment.WorkDate),
	}).Info("Creating task assignment")

	if !assignment.IsValid() {
		r.logger.WithField("task_id", assignment.TaskID).Warn("Invalid task assignment data")
		return apperror.New(apperror.KindPreconditionFailed, "invalid task assignment data")
	}

	assignment.WorkDate = DateOnly(assignment.WorkDate)
	assignment.Version = 1

	result := r.db.Create(assignment)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create task assignment")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":       assignment.ID,
		"status":   assignment.Status,
		"sequence": assignment.Sequence,
	}).Info("Task assignment created successfully")

	return nil
}

// UpdateWithVersion сохраняет назначение и его журнал пауз одной транзакцией.
// Строка назначения обновляется только при совпадении версии - иначе
// конкурентное изменение и вся транзакция откатывается.
func (r *GormTaskAssignmentRepository) UpdateWithVersion(assignment *models.TaskAssignment, expectedVersion uint) error {
	r.logger.WithFields(logrus.Fields{
		"id":      assignment.ID,
		"status":  assignment.Status,
		"version": expectedVersion,
	}).Info("Updating task assignment")

	if !assignment.IsValid() {
		r.logger.WithField("id", assignment.ID).Warn("Invalid task assignment data for update")
		return apperror.New(apperror.KindPreconditionFailed, "invalid task assignment data")
	}

	assignment.Version = expectedVersion + 1
	assignment.UpdatedAt = time.Now()

	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.TaskAssignment{}).
			Where("id = ? AND version = ?", assignment.ID, expectedVersion).
			Select("*").
			Omit("created_at", "PauseHistory").
			Updates(assignment)

		if result.Error != nil {
			r.logger.WithError(result.Error).Error("Failed to update task assignment")
			return result.Error
		}

		if result.RowsAffected == 0 {
			r.logger.WithFields(logrus.Fields{
				"id":      assignment.ID,
				"version": expectedVersion,
			}).Warn("Task assignment version conflict")
			return apperror.New(apperror.KindConcurrentModification,
				"task assignment was modified concurrently, re-read current state")
		}

		for i := range assignment.PauseHistory {
			entry := &assignment.PauseHistory[i]
			entry.AssignmentID = assignment.ID
			if err := tx.Save(entry).Error; err != nil {
				r.logger.WithError(err).Error("Failed to save pause history entry")
				return err
			}
		}

		return nil
	})
}

func (r *GormTaskAssignmentRepository) GetByID(id uint) (*models.TaskAssignment, error) {
	var assignment models.TaskAssignment
	result := r.db.Preload("PauseHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("paused_at, id")
	}).First(&assignment, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Task assignment not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get task assignment by ID")
		return nil, result.Error
	}

	return &assignment, nil
}

func (r *GormTaskAssignmentRepository) GetByEmployeeAndDate(employeeID uint, date time.Time) ([]*models.TaskAssignment, error) {
	var assignments []*models.TaskAssignment

	result := r.db.Preload("PauseHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("paused_at, id")
	}).Where("employee_id = ? AND work_date = ?", employeeID, DateOnly(date)).
		Order("sequence, id").
		Find(&assignments)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get task assignments by employee and date")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"date":        dateKey(date),
		"count":       len(assignments),
	}).Debug("Retrieved task assignments by employee and date")

	return assignments, nil
}

func (r *GormTaskAssignmentRepository) HasActiveLowerSequence(employeeID, projectID uint, date time.Time, sequence int) (bool, error) {
	var count int64

	result := r.db.Model(&models.TaskAssignment{}).
		Where("employee_id = ? AND project_id = ? AND work_date = ? AND sequence < ? AND status = ?",
			employeeID, projectID, DateOnly(date), sequence, models.TaskInProgress).
		Count(&count)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to check lower-sequence assignments")
		return false, result.Error
	}

	return count > 0, nil
}
