package service

import (
	"math"
	"time"

	"fieldforce-attendance/internal/models"
	"fieldforce-attendance/internal/repository"

	"github.com/sirupsen/logrus"
)

// DailySummary - сводка работника за календарный день
type DailySummary struct {
	EmployeeID uint   `json:"employee_id"`
	Date       string `json:"date"`

	TotalTasks      int `json:"total_tasks"`
	CompletedTasks  int `json:"completed_tasks"`
	InProgressTasks int `json:"in_progress_tasks"`
	PausedTasks     int `json:"paused_tasks"`
	QueuedTasks     int `json:"queued_tasks"`
	CancelledTasks  int `json:"cancelled_tasks"`

	// Средний прогресс по неотмененным назначениям, %
	OverallProgress float64 `json:"overall_progress"`

	Attendance []*models.AttendanceRecord `json:"attendance"`
}

type DailySummaryService struct {
	taskRepo       repository.TaskAssignmentRepository
	attendanceRepo repository.AttendanceRepository
	logger         *logrus.Logger
}

func NewDailySummaryService(
	taskRepo repository.TaskAssignmentRepository,
	attendanceRepo repository.AttendanceRepository,
) *DailySummaryService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &DailySummaryService{
		taskRepo:       taskRepo,
		attendanceRepo: attendanceRepo,
		logger:         logger,
	}
}

// GetDailySummary собирает сводку по назначениям и посещаемости за день.
// Отмененные назначения не входят в total и в средний прогресс.
func (s *DailySummaryService) GetDailySummary(employeeID uint, date time.Time) (*DailySummary, error) {
	s.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"date":        date.Format("2006-01-02"),
	}).Debug("Building daily summary")

	assignments, err := s.taskRepo.GetByEmployeeAndDate(employeeID, date)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load task assignments for summary")
		return nil, err
	}

	summary := &DailySummary{
		EmployeeID: employeeID,
		Date:       repository.DateOnly(date).Format("2006-01-02"),
	}

	progressSum := 0
	counted := 0

	for _, assignment := range assignments {
		switch assignment.Status {
		case models.TaskCompleted:
			summary.CompletedTasks++
		case models.TaskInProgress:
			summary.InProgressTasks++
		case models.TaskPaused:
			summary.PausedTasks++
		case models.TaskQueued:
			summary.QueuedTasks++
		case models.TaskCancelled:
			summary.CancelledTasks++
			continue
		}

		summary.TotalTasks++
		progressSum += assignment.ProgressPercent
		counted++
	}

	if counted > 0 {
		// Округляем до одного знака
		summary.OverallProgress = math.Round(float64(progressSum)/float64(counted)*10) / 10
	}

	attendance, err := s.attendanceRepo.GetByEmployeeAndDate(employeeID, date)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load attendance records for summary")
		return nil, err
	}
	summary.Attendance = attendance

	s.logger.WithFields(logrus.Fields{
		"employee_id":      employeeID,
		"total_tasks":      summary.TotalTasks,
		"completed_tasks":  summary.CompletedTasks,
		"overall_progress": summary.OverallProgress,
	}).Debug("Daily summary built")

	return summary, nil
}
