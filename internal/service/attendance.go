package service

import (
	"time"

	"fieldforce-attendance/internal/apperror"
	"fieldforce-attendance/internal/config"
	"fieldforce-attendance/internal/models"
	"fieldforce-attendance/internal/repository"
	"fieldforce-attendance/pkg/geofence"

	"github.com/sirupsen/logrus"
)

// LocationCheck - результат проверки геозоны для клиента.
// AccuracyAllowanceMeters показывается пользователю справочно и
// никогда не влияет на решение о попадании в геозону.
type LocationCheck struct {
	geofence.Result
	AccuracyAllowanceMeters float64 `json:"accuracy_allowance_meters"`
}

type AttendanceService struct {
	attendanceRepo repository.AttendanceRepository
	projectRepo    repository.ProjectRepository
	cfg            *config.EngineConfig
	logger         *logrus.Logger
	now            func() time.Time
}

func NewAttendanceService(
	attendanceRepo repository.AttendanceRepository,
	projectRepo repository.ProjectRepository,
	cfg *config.EngineConfig,
) *AttendanceService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		projectRepo:    projectRepo,
		cfg:            cfg,
		logger:         logger,
		now:            time.Now,
	}
}

// SetClock подменяет источник времени (для тестов).
// Во всех переходах используются только серверные часы.
func (s *AttendanceService) SetClock(now func() time.Time) {
	s.now = now
}

// ValidateLocation проверяет GPS-точку против геозоны проекта
func (s *AttendanceService) ValidateLocation(employeeID, projectID uint, sample geofence.Sample) (*LocationCheck, error) {
	s.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"project_id":  projectID,
	}).Debug("Validating location")

	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}

	spec, err := s.geofenceSpec(project)
	if err != nil {
		return nil, err
	}

	result, err := geofence.Validate(sample, spec)
	if err != nil {
		return nil, apperror.New(apperror.KindConfigurationMissing, "project has no geofence configured")
	}

	allowance := sample.AccuracyMeters
	if project.StrictMode && s.cfg.StrictModeIgnoresAccuracy {
		allowance = 0
	}

	return &LocationCheck{
		Result:                  result,
		AccuracyAllowanceMeters: allowance,
	}, nil
}

// ClockIn отмечает приход на объект
func (s *AttendanceService) ClockIn(employeeID, projectID uint, sample geofence.Sample) (*models.AttendanceRecord, error) {
	s.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"project_id":  projectID,
	}).Info("Employee clocking in")

	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}

	if err := s.checkGeofence(project, sample, models.ActionClockIn); err != nil {
		return nil, err
	}

	today := repository.DateOnly(s.now())
	existing, err := s.attendanceRepo.GetByEmployeeProjectDate(employeeID, projectID, today)
	if err != nil {
		s.logger.WithError(err).Error("Failed to check existing attendance record")
		return nil, err
	}

	// Запись создается первым успешным clock-in; её наличие означает,
	// что день уже начат
	if existing != nil {
		s.logger.WithFields(logrus.Fields{
			"employee_id": employeeID,
			"status":      existing.Status,
		}).Warn("Attendance record already exists for today")
		return nil, invalidTransition(models.ActionClockIn, existing.Status)
	}

	now := s.now()
	shiftMinutes := project.ScheduledShiftMinutes
	if shiftMinutes <= 0 {
		shiftMinutes = s.cfg.DefaultShiftMinutes
	}

	record := &models.AttendanceRecord{
		EmployeeID:            employeeID,
		ProjectID:             projectID,
		WorkDate:              today,
		Status:                models.AttendanceClockedIn,
		CheckInAt:             &now,
		ScheduledShiftMinutes: shiftMinutes,
	}

	if err := s.attendanceRepo.Create(record); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":          record.ID,
		"employee_id": employeeID,
		"check_in_at": now.Format("15:04"),
	}).Info("Employee clocked in successfully")

	return record, nil
}

// LunchStart отмечает начало обеденного перерыва
func (s *AttendanceService) LunchStart(employeeID, projectID uint, sample geofence.Sample) (*models.AttendanceRecord, error) {
	s.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"project_id":  projectID,
	}).Info("Employee starting lunch")

	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}

	if err := s.checkGeofence(project, sample, models.ActionLunchStart); err != nil {
		return nil, err
	}

	record, err := s.loadForTransition(employeeID, projectID, models.ActionLunchStart)
	if err != nil {
		return nil, err
	}

	loadedVersion := record.Version
	now := s.now()
	record.LunchStartAt = &now
	record.LunchEndAt = nil
	record.Status = models.AttendanceOnLunch

	if err := s.attendanceRepo.UpdateWithVersion(record, loadedVersion); err != nil {
		return nil, err
	}

	return record, nil
}

// LunchEnd отмечает конец обеденного перерыва
func (s *AttendanceService) LunchEnd(employeeID, projectID uint) (*models.AttendanceRecord, error) {
	s.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"project_id":  projectID,
	}).Info("Employee ending lunch")

	record, err := s.loadForTransition(employeeID, projectID, models.ActionLunchEnd)
	if err != nil {
		return nil, err
	}

	loadedVersion := record.Version
	record.CloseLunch(s.now())

	if err := s.attendanceRepo.UpdateWithVersion(record, loadedVersion); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"employee_id":            employeeID,
		"lunch_duration_minutes": record.LunchDurationMinutes,
	}).Info("Lunch ended successfully")

	return record, nil
}

// OvertimeStart переводит день в режим переработки.
// Допускается только после выработки плановой смены.
func (s *AttendanceService) OvertimeStart(employeeID, projectID uint) (*models.AttendanceRecord, error) {
	s.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"project_id":  projectID,
	}).Info("Employee starting overtime")

	record, err := s.loadForTransition(employeeID, projectID, models.ActionOvertimeStart)
	if err != nil {
		return nil, err
	}

	now := s.now()
	worked := record.WorkedMinutesAt(now)
	if worked < record.ScheduledShiftMinutes {
		s.logger.WithFields(logrus.Fields{
			"employee_id":    employeeID,
			"worked_minutes": worked,
			"shift_minutes":  record.ScheduledShiftMinutes,
		}).Warn("Overtime requested before scheduled shift is complete")
		return nil, apperror.New(apperror.KindPreconditionFailed,
			"scheduled shift is not complete yet").
			WithDetail("worked_minutes", worked).
			WithDetail("scheduled_shift_minutes", record.ScheduledShiftMinutes)
	}

	loadedVersion := record.Version
	record.OvertimeStartAt = &now
	record.Status = models.AttendanceOnOvertime

	if err := s.attendanceRepo.UpdateWithVersion(record, loadedVersion); err != nil {
		return nil, err
	}

	return record, nil
}

// ClockOut отмечает уход с объекта и рассчитывает итоги дня.
// Переработка сверяется по отметкам времени даже если overtime-start
// не вызывался явно.
func (s *AttendanceService) ClockOut(employeeID, projectID uint) (*models.AttendanceRecord, error) {
	s.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"project_id":  projectID,
	}).Info("Employee clocking out")

	record, err := s.loadForTransition(employeeID, projectID, models.ActionClockOut)
	if err != nil {
		return nil, err
	}

	loadedVersion := record.Version
	record.FinalizeTotals(s.now())

	if err := s.attendanceRepo.UpdateWithVersion(record, loadedVersion); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":             record.ID,
		"employee_id":    employeeID,
		"regular_hours":  record.RegularHours,
		"overtime_hours": record.OvertimeHours,
	}).Info("Employee clocked out successfully")

	return record, nil
}

// Status возвращает запись посещаемости за дату
func (s *AttendanceService) Status(employeeID, projectID uint, date time.Time) (*models.AttendanceRecord, error) {
	s.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"project_id":  projectID,
	}).Debug("Getting attendance status")

	record, err := s.attendanceRepo.GetByEmployeeProjectDate(employeeID, projectID, date)
	if err != nil {
		return nil, err
	}

	if record == nil {
		return nil, apperror.New(apperror.KindNotFound, "attendance record not found")
	}

	return record, nil
}

// loadForTransition загружает сегодняшнюю запись и проверяет допустимость
// перехода. Отсутствие записи трактуется как статус not_clocked_in.
func (s *AttendanceService) loadForTransition(employeeID, projectID uint, action models.AttendanceAction) (*models.AttendanceRecord, error) {
	today := repository.DateOnly(s.now())

	record, err := s.attendanceRepo.GetByEmployeeProjectDate(employeeID, projectID, today)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load attendance record")
		return nil, err
	}

	if record == nil {
		s.logger.WithFields(logrus.Fields{
			"employee_id": employeeID,
			"action":      action,
		}).Warn("No attendance record for today")
		return nil, invalidTransition(action, models.AttendanceNotClockedIn)
	}

	if !record.CanApply(action) {
		s.logger.WithFields(logrus.Fields{
			"employee_id": employeeID,
			"action":      action,
			"status":      record.Status,
		}).Warn("Attendance transition not allowed from current status")
		return nil, invalidTransition(action, record.Status)
	}

	return record, nil
}

func (s *AttendanceService) getProject(projectID uint) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(projectID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load project")
		return nil, err
	}

	if project == nil {
		return nil, apperror.Newf(apperror.KindNotFound, "project %d not found", projectID)
	}

	return project, nil
}

func (s *AttendanceService) geofenceSpec(project *models.Project) (*geofence.Spec, error) {
	if !project.HasGeofence() {
		return nil, apperror.New(apperror.KindConfigurationMissing,
			"project has no geofence configured")
	}

	return &geofence.Spec{
		CenterLatitude:        *project.CenterLatitude,
		CenterLongitude:       *project.CenterLongitude,
		RadiusMeters:          project.GeofenceRadiusMeters,
		AllowedVarianceMeters: project.AllowedVarianceMeters,
		StrictMode:            project.StrictMode,
	}, nil
}

// checkGeofence валидирует точку перед переходом. При отсутствующей
// геозоне решает политика обхода: проекта или глобальная.
func (s *AttendanceService) checkGeofence(project *models.Project, sample geofence.Sample, action models.AttendanceAction) error {
	if !project.HasGeofence() {
		if project.GeofenceBypassAllowed || s.cfg.GeofenceBypassWhenMissing {
			s.logger.WithFields(logrus.Fields{
				"project_id": project.ID,
				"action":     action,
			}).Warn("Geofence missing, bypass allowed by policy")
			return nil
		}
		return apperror.New(apperror.KindConfigurationMissing,
			"project has no geofence configured")
	}

	spec, err := s.geofenceSpec(project)
	if err != nil {
		return err
	}

	result, err := geofence.Validate(sample, spec)
	if err != nil {
		return apperror.New(apperror.KindConfigurationMissing,
			"project has no geofence configured")
	}

	if !result.Inside {
		s.logger.WithFields(logrus.Fields{
			"project_id":       project.ID,
			"action":           action,
			"distance_meters":  result.DistanceMeters,
			"effective_radius": result.EffectiveRadius,
		}).Warn("Location outside project geofence")
		return apperror.New(apperror.KindOutsideGeofence, "location is outside the project geofence").
			WithDetail("distance_meters", result.DistanceMeters).
			WithDetail("effective_radius", result.EffectiveRadius)
	}

	return nil
}

// invalidTransition формирует ошибку недопустимого перехода с указанием
// текущего статуса и запрошенного действия
func invalidTransition(action models.AttendanceAction, status models.AttendanceStatus) *apperror.Error {
	return apperror.Newf(apperror.KindInvalidStateTransition,
		"action %s is not allowed from status %s", action, status).
		WithDetail("action", string(action)).
		WithDetail("current_status", string(status))
}
