package models

import "time"

// CorrectionStatus - статусы заявки на корректировку
type CorrectionStatus string

const (
	CorrectionPending  CorrectionStatus = "pending"
	CorrectionApproved CorrectionStatus = "approved"
	CorrectionRejected CorrectionStatus = "rejected"
)

// AttendanceCorrection - заявка на корректировку записи посещаемости.
// Хранится отдельно от записи (append-only): исходная запись никогда
// не перезаписывается, одобренные дельты накладываются при чтении.
type AttendanceCorrection struct {
	ID                 uint   `gorm:"primarykey" json:"id"`
	AttendanceRecordID uint   `gorm:"not null;index" json:"attendance_record_id"`
	SubmittedBy        uint   `gorm:"not null;index" json:"submitted_by"`
	Reference          string `gorm:"type:varchar(36);uniqueIndex" json:"reference"`

	// Предлагаемые значения; nil - поле не корректируется
	RequestedCheckInAt    *time.Time `json:"requested_check_in_at"`
	RequestedCheckOutAt   *time.Time `json:"requested_check_out_at"`
	RequestedLunchStartAt *time.Time `json:"requested_lunch_start_at"`
	RequestedLunchEndAt   *time.Time `json:"requested_lunch_end_at"`

	Reason string           `gorm:"not null" json:"reason"`
	Status CorrectionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	ReviewedBy *uint      `json:"reviewed_by"`
	ReviewedAt *time.Time `json:"reviewed_at"`
	ReviewNote string     `json:"review_note"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AttendanceCorrection) TableName() string {
	return "attendance_corrections"
}

// HasChanges проверяет, что заявка предлагает хотя бы одно изменение
func (c *AttendanceCorrection) HasChanges() bool {
	return c.RequestedCheckInAt != nil ||
		c.RequestedCheckOutAt != nil ||
		c.RequestedLunchStartAt != nil ||
		c.RequestedLunchEndAt != nil
}

// IsValid проверяет валидность данных
func (c *AttendanceCorrection) IsValid() bool {
	if c.AttendanceRecordID == 0 || c.SubmittedBy == 0 {
		return false
	}
	if c.Reason == "" {
		return false
	}
	if !c.HasChanges() {
		return false
	}
	switch c.Status {
	case CorrectionPending, CorrectionApproved, CorrectionRejected:
		return true
	}
	return false
}
