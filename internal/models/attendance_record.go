package models

import (
	"time"
)

// AttendanceStatus - закрытый набор статусов рабочего дня
type AttendanceStatus string

const (
	AttendanceNotClockedIn AttendanceStatus = "not_clocked_in"
	AttendanceClockedIn    AttendanceStatus = "clocked_in"
	AttendanceOnLunch      AttendanceStatus = "on_lunch"
	AttendanceOnOvertime   AttendanceStatus = "on_overtime"
	AttendanceClockedOut   AttendanceStatus = "clocked_out"
)

// AttendanceAction - действия, допустимые над записью посещаемости
type AttendanceAction string

const (
	ActionClockIn       AttendanceAction = "clock_in"
	ActionLunchStart    AttendanceAction = "lunch_start"
	ActionLunchEnd      AttendanceAction = "lunch_end"
	ActionOvertimeStart AttendanceAction = "overtime_start"
	ActionClockOut      AttendanceAction = "clock_out"
)

// attendanceTransitions - таблица допустимых переходов: действие -> статусы, из которых оно разрешено
var attendanceTransitions = map[AttendanceAction][]AttendanceStatus{
	ActionClockIn:       {AttendanceNotClockedIn},
	ActionLunchStart:    {AttendanceClockedIn},
	ActionLunchEnd:      {AttendanceOnLunch},
	ActionOvertimeStart: {AttendanceClockedIn},
	ActionClockOut:      {AttendanceClockedIn, AttendanceOnOvertime},
}

type AttendanceRecord struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	EmployeeID uint      `gorm:"not null;index;uniqueIndex:idx_attendance_employee_project_date" json:"employee_id"`
	ProjectID  uint      `gorm:"not null;index;uniqueIndex:idx_attendance_employee_project_date" json:"project_id"`
	WorkDate   time.Time `gorm:"type:date;not null;uniqueIndex:idx_attendance_employee_project_date" json:"work_date"`

	Status AttendanceStatus `gorm:"type:varchar(20);not null;default:'not_clocked_in';index" json:"status"`

	// Отметки времени (только серверные часы, клиентское время не принимается)
	CheckInAt       *time.Time `json:"check_in_at"`
	CheckOutAt      *time.Time `json:"check_out_at"`
	LunchStartAt    *time.Time `json:"lunch_start_at"`
	LunchEndAt      *time.Time `json:"lunch_end_at"`
	OvertimeStartAt *time.Time `json:"overtime_start_at"`

	// Плановая смена - снимок с проекта на момент прихода
	ScheduledShiftMinutes int `gorm:"not null;default:480" json:"scheduled_shift_minutes"`

	// Фактические показатели (рассчитываются при уходе)
	LunchDurationMinutes int     `gorm:"not null;default:0" json:"lunch_duration_minutes"`
	RegularHours         float64 `gorm:"not null;default:0" json:"regular_hours"`
	OvertimeHours        float64 `gorm:"not null;default:0" json:"overtime_hours"`

	// Версия для оптимистичной блокировки
	Version uint `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Employee Employee `gorm:"foreignKey:EmployeeID" json:"-"`
	Project  Project  `gorm:"foreignKey:ProjectID" json:"-"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// CanApply проверяет, разрешено ли действие из текущего статуса
func (ar *AttendanceRecord) CanApply(action AttendanceAction) bool {
	for _, from := range attendanceTransitions[action] {
		if ar.Status == from {
			return true
		}
	}
	return false
}

// WorkedMinutesAt возвращает отработанные минуты на момент now (без учета незакрытого обеда)
func (ar *AttendanceRecord) WorkedMinutesAt(now time.Time) int {
	if ar.CheckInAt == nil {
		return 0
	}
	minutes := int(now.Sub(*ar.CheckInAt).Minutes()) - ar.LunchDurationMinutes
	if minutes < 0 {
		return 0
	}
	return minutes
}

// CloseLunch закрывает обеденный перерыв и накапливает его длительность
func (ar *AttendanceRecord) CloseLunch(lunchEnd time.Time) {
	ar.LunchEndAt = &lunchEnd
	if ar.LunchStartAt != nil {
		ar.LunchDurationMinutes += int(lunchEnd.Sub(*ar.LunchStartAt).Minutes())
	}
	ar.Status = AttendanceClockedIn
}

// FinalizeTotals рассчитывает итоги дня при уходе.
// Переработка сверяется по отметкам времени независимо от того,
// вызывался ли overtime-start явно.
func (ar *AttendanceRecord) FinalizeTotals(checkOut time.Time) {
	ar.CheckOutAt = &checkOut
	ar.RecomputeTotals()
	ar.Status = AttendanceClockedOut
}

// RecomputeTotals пересчитывает regular/overtime по текущим отметкам времени
func (ar *AttendanceRecord) RecomputeTotals() {
	if ar.CheckInAt == nil || ar.CheckOutAt == nil {
		return
	}

	workedMinutes := int(ar.CheckOutAt.Sub(*ar.CheckInAt).Minutes()) - ar.LunchDurationMinutes
	if workedMinutes < 0 {
		workedMinutes = 0
	}

	regularMinutes := workedMinutes
	overtimeMinutes := 0
	if ar.ScheduledShiftMinutes > 0 && workedMinutes > ar.ScheduledShiftMinutes {
		regularMinutes = ar.ScheduledShiftMinutes
		overtimeMinutes = workedMinutes - ar.ScheduledShiftMinutes
	}

	ar.RegularHours = float64(regularMinutes) / 60.0
	ar.OvertimeHours = float64(overtimeMinutes) / 60.0
}

// IsValid проверяет валидность данных
func (ar *AttendanceRecord) IsValid() bool {
	if ar.EmployeeID == 0 || ar.ProjectID == 0 {
		return false
	}
	if ar.WorkDate.IsZero() {
		return false
	}
	if ar.ScheduledShiftMinutes <= 0 || ar.ScheduledShiftMinutes > 1440 {
		return false
	}
	switch ar.Status {
	case AttendanceNotClockedIn, AttendanceClockedIn, AttendanceOnLunch, AttendanceOnOvertime, AttendanceClockedOut:
	default:
		return false
	}
	if ar.Status != AttendanceNotClockedIn && ar.CheckInAt == nil {
		return false
	}
	return true
}
