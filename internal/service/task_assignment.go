package service

import (
	"time"

	"fieldforce-attendance/internal/apperror"
	"fieldforce-attendance/internal/config"
	"fieldforce-attendance/internal/models"
	"fieldforce-attendance/internal/repository"

	"github.com/sirupsen/logrus"
)

type TaskAssignmentService struct {
	taskRepo       repository.TaskAssignmentRepository
	attendanceRepo repository.AttendanceRepository
	cfg            *config.EngineConfig
	logger         *logrus.Logger
	now            func() time.Time
}

func NewTaskAssignmentService(
	taskRepo repository.TaskAssignmentRepository,
	attendanceRepo repository.AttendanceRepository,
	cfg *config.EngineConfig,
) *TaskAssignmentService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &TaskAssignmentService{
		taskRepo:       taskRepo,
		attendanceRepo: attendanceRepo,
		cfg:            cfg,
		logger:         logger,
		now:            time.Now,
	}
}

// SetClock подменяет источник времени (для тестов)
func (s *TaskAssignmentService) SetClock(now func() time.Time) {
	s.now = now
}

// Start запускает назначение. Работник должен быть отмечен на объекте
// (clocked_in или on_overtime). Запуск вне очереди допускается, но
// фиксируется в записи.
func (s *TaskAssignmentService) Start(assignmentID, employeeID uint) (*models.TaskAssignment, error) {
	s.logger.WithFields(logrus.Fields{
		"assignment_id": assignmentID,
		"employee_id":   employeeID,
	}).Info("Starting task assignment")

	assignment, err := s.load(assignmentID)
	if err != nil {
		return nil, err
	}

	if assignment.EmployeeID != employeeID {
		s.logger.WithFields(logrus.Fields{
			"assignment_id": assignmentID,
			"employee_id":   employeeID,
		}).Warn("Assignment belongs to another employee")
		return nil, apperror.New(apperror.KindPreconditionFailed,
			"assignment belongs to another employee")
	}

	if !assignment.CanApply(models.TaskActionStart) {
		return nil, invalidTaskTransition(models.TaskActionStart, assignment.Status)
	}

	today := repository.DateOnly(s.now())
	attendance, err := s.attendanceRepo.GetByEmployeeProjectDate(employeeID, assignment.ProjectID, today)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load attendance record for task start")
		return nil, err
	}

	if attendance == nil ||
		(attendance.Status != models.AttendanceClockedIn && attendance.Status != models.AttendanceOnOvertime) {
		s.logger.WithFields(logrus.Fields{
			"assignment_id": assignmentID,
			"employee_id":   employeeID,
		}).Warn("Employee is not clocked in, task start rejected")
		return nil, apperror.New(apperror.KindPreconditionFailed,
			"employee is not clocked in on this project")
	}

	// Мягкая проверка очередности: не блокируем, только фиксируем
	outOfOrder, err := s.taskRepo.HasActiveLowerSequence(
		assignment.EmployeeID, assignment.ProjectID, assignment.WorkDate, assignment.Sequence)
	if err != nil {
		return nil, err
	}
	if outOfOrder {
		s.logger.WithFields(logrus.Fields{
			"assignment_id": assignmentID,
			"sequence":      assignment.Sequence,
		}).Warn("Lower-sequence assignment still in progress, starting out of order")
	}

	loadedVersion := assignment.Version
	now := s.now()
	assignment.StartedAt = &now
	assignment.Status = models.TaskInProgress
	assignment.StartedOutOfOrder = outOfOrder

	if err := s.taskRepo.UpdateWithVersion(assignment, loadedVersion); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"assignment_id": assignmentID,
		"started_at":    now.Format("15:04"),
	}).Info("Task assignment started successfully")

	return assignment, nil
}

// Pause приостанавливает назначение и открывает запись в журнале пауз
func (s *TaskAssignmentService) Pause(assignmentID uint, reason string) (*models.TaskAssignment, error) {
	s.logger.WithFields(logrus.Fields{
		"assignment_id": assignmentID,
		"reason":        reason,
	}).Info("Pausing task assignment")

	assignment, err := s.load(assignmentID)
	if err != nil {
		return nil, err
	}

	if !assignment.CanApply(models.TaskActionPause) {
		return nil, invalidTaskTransition(models.TaskActionPause, assignment.Status)
	}

	loadedVersion := assignment.Version
	assignment.PauseHistory = append(assignment.PauseHistory, models.TaskPauseEntry{
		AssignmentID: assignment.ID,
		PausedAt:     s.now(),
		Reason:       reason,
	})
	assignment.Status = models.TaskPaused

	if err := s.taskRepo.UpdateWithVersion(assignment, loadedVersion); err != nil {
		return nil, err
	}

	return assignment, nil
}

// Resume возобновляет приостановленное назначение и закрывает
// последнюю открытую запись паузы
func (s *TaskAssignmentService) Resume(assignmentID uint) (*models.TaskAssignment, error) {
	s.logger.WithField("assignment_id", assignmentID).Info("Resuming task assignment")

	assignment, err := s.load(assignmentID)
	if err != nil {
		return nil, err
	}

	if !assignment.CanApply(models.TaskActionResume) {
		return nil, invalidTaskTransition(models.TaskActionResume, assignment.Status)
	}

	loadedVersion := assignment.Version
	now := s.now()
	if open := assignment.OpenPause(); open != nil {
		open.ResumedAt = &now
	}
	assignment.Status = models.TaskInProgress

	if err := s.taskRepo.UpdateWithVersion(assignment, loadedVersion); err != nil {
		return nil, err
	}

	return assignment, nil
}

// UpdateProgress обновляет выработку. progress_percent и progress_today
// всегда меняются вместе в одной записи - это инвариант.
func (s *TaskAssignmentService) UpdateProgress(assignmentID uint, completedQuantity float64, reportedPercent int) (*models.TaskAssignment, error) {
	s.logger.WithFields(logrus.Fields{
		"assignment_id":      assignmentID,
		"completed_quantity": completedQuantity,
	}).Info("Updating task assignment progress")

	if completedQuantity < 0 {
		return nil, apperror.New(apperror.KindPreconditionFailed,
			"completed quantity must not be negative")
	}

	assignment, err := s.load(assignmentID)
	if err != nil {
		return nil, err
	}

	if !assignment.CanApply(models.TaskActionUpdateProgress) {
		return nil, invalidTaskTransition(models.TaskActionUpdateProgress, assignment.Status)
	}

	loadedVersion := assignment.Version
	assignment.ApplyProgress(completedQuantity, reportedPercent)

	if err := s.taskRepo.UpdateWithVersion(assignment, loadedVersion); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"assignment_id":    assignmentID,
		"progress_percent": assignment.ProgressPercent,
		"progress_today":   assignment.ProgressToday,
	}).Info("Task assignment progress updated")

	return assignment, nil
}

// Complete завершает назначение. Прогресс должен достичь порога.
// Открытая пауза закрывается автоматически.
func (s *TaskAssignmentService) Complete(assignmentID uint) (*models.TaskAssignment, error) {
	s.logger.WithField("assignment_id", assignmentID).Info("Completing task assignment")

	assignment, err := s.load(assignmentID)
	if err != nil {
		return nil, err
	}

	if !assignment.CanApply(models.TaskActionComplete) {
		return nil, invalidTaskTransition(models.TaskActionComplete, assignment.Status)
	}

	threshold := s.cfg.CompletionThresholdPercent
	if assignment.ProgressPercent < threshold {
		s.logger.WithFields(logrus.Fields{
			"assignment_id":    assignmentID,
			"progress_percent": assignment.ProgressPercent,
			"threshold":        threshold,
		}).Warn("Completion rejected, progress below threshold")
		return nil, apperror.New(apperror.KindPreconditionFailed,
			"progress is below the completion threshold").
			WithDetail("progress_percent", assignment.ProgressPercent).
			WithDetail("completion_threshold_percent", threshold)
	}

	loadedVersion := assignment.Version
	now := s.now()
	if open := assignment.OpenPause(); open != nil {
		open.ResumedAt = &now
	}
	assignment.CompletedAt = &now
	assignment.Status = models.TaskCompleted

	if err := s.taskRepo.UpdateWithVersion(assignment, loadedVersion); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"assignment_id": assignmentID,
		"completed_at":  now.Format("15:04"),
	}).Info("Task assignment completed successfully")

	return assignment, nil
}

// Cancel отменяет назначение. Повторная отмена идемпотентна.
func (s *TaskAssignmentService) Cancel(assignmentID uint, reason string) (*models.TaskAssignment, error) {
	s.logger.WithFields(logrus.Fields{
		"assignment_id": assignmentID,
		"reason":        reason,
	}).Info("Cancelling task assignment")

	assignment, err := s.load(assignmentID)
	if err != nil {
		return nil, err
	}

	if assignment.Status == models.TaskCancelled {
		s.logger.WithField("assignment_id", assignmentID).
			Debug("Task assignment already cancelled")
		return assignment, nil
	}

	if !assignment.CanApply(models.TaskActionCancel) {
		return nil, invalidTaskTransition(models.TaskActionCancel, assignment.Status)
	}

	loadedVersion := assignment.Version
	assignment.Status = models.TaskCancelled
	assignment.CancelReason = reason

	if err := s.taskRepo.UpdateWithVersion(assignment, loadedVersion); err != nil {
		return nil, err
	}

	return assignment, nil
}

// GetByID возвращает назначение с журналом пауз
func (s *TaskAssignmentService) GetByID(assignmentID uint) (*models.TaskAssignment, error) {
	return s.load(assignmentID)
}

func (s *TaskAssignmentService) load(assignmentID uint) (*models.TaskAssignment, error) {
	assignment, err := s.taskRepo.GetByID(assignmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load task assignment")
		return nil, err
	}

	if assignment == nil {
		return nil, apperror.Newf(apperror.KindNotFound, "task assignment %d not found", assignmentID)
	}

	return assignment, nil
}

// invalidTaskTransition формирует ошибку недопустимого перехода
func invalidTaskTransition(action models.TaskAction, status models.TaskStatus) *apperror.Error {
	return apperror.Newf(apperror.KindInvalidStateTransition,
		"action %s is not allowed from status %s", action, status).
		WithDetail("action", string(action)).
		WithDetail("current_status", string(status))
}
