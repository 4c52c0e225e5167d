package service

import (
	"time"

	"fieldforce-attendance/internal/apperror"
	"fieldforce-attendance/internal/models"
	"fieldforce-attendance/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CorrectionRequest - предлагаемые изменения отметок времени
type CorrectionRequest struct {
	CheckInAt    *time.Time
	CheckOutAt   *time.Time
	LunchStartAt *time.Time
	LunchEndAt   *time.Time
	Reason       string
}

// CorrectionService реализует append-only модель корректировок:
// исходная запись посещаемости никогда не перезаписывается,
// одобренные дельты накладываются при чтении.
type CorrectionService struct {
	correctionRepo repository.AttendanceCorrectionRepository
	attendanceRepo repository.AttendanceRepository
	employeeRepo   repository.EmployeeRepository
	logger         *logrus.Logger
	now            func() time.Time
}

func NewCorrectionService(
	correctionRepo repository.AttendanceCorrectionRepository,
	attendanceRepo repository.AttendanceRepository,
	employeeRepo repository.EmployeeRepository,
) *CorrectionService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &CorrectionService{
		correctionRepo: correctionRepo,
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// SetClock подменяет источник времени (для тестов)
func (s *CorrectionService) SetClock(now func() time.Time) {
	s.now = now
}

// Submit создает заявку на корректировку. Подать её может только прораб.
func (s *CorrectionService) Submit(recordID, submittedBy uint, req CorrectionRequest) (*models.AttendanceCorrection, error) {
	s.logger.WithFields(logrus.Fields{
		"attendance_record_id": recordID,
		"submitted_by":         submittedBy,
	}).Info("Submitting attendance correction")

	record, err := s.attendanceRepo.GetByID(recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperror.Newf(apperror.KindNotFound, "attendance record %d not found", recordID)
	}

	if err := s.requireSupervisor(submittedBy); err != nil {
		return nil, err
	}

	correction := &models.AttendanceCorrection{
		AttendanceRecordID:    recordID,
		SubmittedBy:           submittedBy,
		Reference:             uuid.NewString(),
		RequestedCheckInAt:    req.CheckInAt,
		RequestedCheckOutAt:   req.CheckOutAt,
		RequestedLunchStartAt: req.LunchStartAt,
		RequestedLunchEndAt:   req.LunchEndAt,
		Reason:                req.Reason,
		Status:                models.CorrectionPending,
	}

	if !correction.HasChanges() {
		return nil, apperror.New(apperror.KindPreconditionFailed,
			"correction must propose at least one change")
	}
	if correction.Reason == "" {
		return nil, apperror.New(apperror.KindPreconditionFailed,
			"correction reason is required")
	}

	if err := s.correctionRepo.Create(correction); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":        correction.ID,
		"reference": correction.Reference,
	}).Info("Attendance correction submitted")

	return correction, nil
}

// Review одобряет или отклоняет заявку. Повторная проверка уже
// рассмотренной заявки недопустима.
func (s *CorrectionService) Review(correctionID, reviewerID uint, approve bool, note string) (*models.AttendanceCorrection, error) {
	s.logger.WithFields(logrus.Fields{
		"correction_id": correctionID,
		"reviewer_id":   reviewerID,
		"approve":       approve,
	}).Info("Reviewing attendance correction")

	correction, err := s.correctionRepo.GetByID(correctionID)
	if err != nil {
		return nil, err
	}
	if correction == nil {
		return nil, apperror.Newf(apperror.KindNotFound, "correction %d not found", correctionID)
	}

	if err := s.requireSupervisor(reviewerID); err != nil {
		return nil, err
	}

	if correction.Status != models.CorrectionPending {
		s.logger.WithFields(logrus.Fields{
			"correction_id": correctionID,
			"status":        correction.Status,
		}).Warn("Correction already reviewed")
		return nil, apperror.Newf(apperror.KindInvalidStateTransition,
			"correction is already %s", correction.Status).
			WithDetail("current_status", string(correction.Status))
	}

	now := s.now()
	correction.ReviewedBy = &reviewerID
	correction.ReviewedAt = &now
	correction.ReviewNote = note
	if approve {
		correction.Status = models.CorrectionApproved
	} else {
		correction.Status = models.CorrectionRejected
	}

	if err := s.correctionRepo.Update(correction); err != nil {
		return nil, err
	}

	return correction, nil
}

// ListForRecord возвращает полный журнал заявок по записи
func (s *CorrectionService) ListForRecord(recordID uint) ([]*models.AttendanceCorrection, error) {
	return s.correctionRepo.ListByRecord(recordID)
}

// EffectiveRecord возвращает запись с наложенными одобренными дельтами
// и пересчитанными итогами. Сохраненная строка остается нетронутой -
// это и есть аудиторский след.
func (s *CorrectionService) EffectiveRecord(employeeID, projectID uint, date time.Time) (*models.AttendanceRecord, []*models.AttendanceCorrection, error) {
	record, err := s.attendanceRepo.GetByEmployeeProjectDate(employeeID, projectID, date)
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		return nil, nil, apperror.New(apperror.KindNotFound, "attendance record not found")
	}

	approved, err := s.correctionRepo.ListApprovedByRecord(record.ID)
	if err != nil {
		return nil, nil, err
	}

	effective := *record
	for _, correction := range approved {
		if correction.RequestedCheckInAt != nil {
			effective.CheckInAt = correction.RequestedCheckInAt
		}
		if correction.RequestedCheckOutAt != nil {
			effective.CheckOutAt = correction.RequestedCheckOutAt
		}
		if correction.RequestedLunchStartAt != nil {
			effective.LunchStartAt = correction.RequestedLunchStartAt
		}
		if correction.RequestedLunchEndAt != nil {
			effective.LunchEndAt = correction.RequestedLunchEndAt
		}
	}

	// Если обе отметки обеда известны, длительность выводится из них
	if effective.LunchStartAt != nil && effective.LunchEndAt != nil {
		effective.LunchDurationMinutes = int(effective.LunchEndAt.Sub(*effective.LunchStartAt).Minutes())
	}
	effective.RecomputeTotals()

	s.logger.WithFields(logrus.Fields{
		"attendance_record_id": record.ID,
		"approved_corrections": len(approved),
	}).Debug("Built effective attendance record")

	return &effective, approved, nil
}

func (s *CorrectionService) requireSupervisor(employeeID uint) error {
	employee, err := s.employeeRepo.GetByID(employeeID)
	if err != nil {
		return err
	}
	if employee == nil {
		return apperror.Newf(apperror.KindNotFound, "employee %d not found", employeeID)
	}
	if !employee.IsSupervisor() {
		s.logger.WithField("employee_id", employeeID).
			Warn("Correction action rejected, employee is not a supervisor")
		return apperror.New(apperror.KindPreconditionFailed,
			"only a supervisor can manage corrections")
	}
	return nil
}
