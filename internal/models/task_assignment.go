package models

import (
	"math"
	"time"
)

// TaskStatus - закрытый набор статусов назначения
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskInProgress TaskStatus = "in_progress"
	TaskPaused     TaskStatus = "paused"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// TaskAction - операции жизненного цикла назначения
type TaskAction string

const (
	TaskActionStart          TaskAction = "start"
	TaskActionPause          TaskAction = "pause"
	TaskActionResume         TaskAction = "resume"
	TaskActionUpdateProgress TaskAction = "update_progress"
	TaskActionComplete       TaskAction = "complete"
	TaskActionCancel         TaskAction = "cancel"
)

// taskTransitions - таблица допустимых переходов: действие -> статусы, из которых оно разрешено
var taskTransitions = map[TaskAction][]TaskStatus{
	TaskActionStart:          {TaskQueued},
	TaskActionPause:          {TaskInProgress},
	TaskActionResume:         {TaskPaused},
	TaskActionUpdateProgress: {TaskInProgress, TaskPaused},
	TaskActionComplete:       {TaskInProgress, TaskPaused},
	TaskActionCancel:         {TaskQueued, TaskInProgress, TaskPaused},
}

// TaskAssignment - назначение работника на задачу проекта на один день
type TaskAssignment struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	EmployeeID uint      `gorm:"not null;index" json:"employee_id"`
	ProjectID  uint      `gorm:"not null;index" json:"project_id"`
	TaskID     uint      `gorm:"not null;index" json:"task_id"`
	WorkDate   time.Time `gorm:"type:date;not null;index" json:"work_date"`

	Status   TaskStatus `gorm:"type:varchar(20);not null;default:'queued';index" json:"status"`
	Priority int        `gorm:"not null;default:0" json:"priority"`
	Sequence int        `gorm:"not null;default:0" json:"sequence"`

	ProgressPercent int `gorm:"not null;default:0;check:progress_percent >= 0 AND progress_percent <= 100" json:"progress_percent"`

	// Дневная норма выработки
	TargetQuantity float64 `gorm:"not null;default:0" json:"target_quantity"`
	TargetUnit     string  `gorm:"type:varchar(30)" json:"target_unit"`
	ProgressToday  float64 `gorm:"not null;default:0" json:"progress_today"`

	// Мультизадачность допускается, но запуск вне очереди фиксируется
	StartedOutOfOrder bool `gorm:"not null;default:false" json:"started_out_of_order"`

	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CancelReason string     `json:"cancel_reason"`

	// Версия для оптимистичной блокировки
	Version uint `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	PauseHistory []TaskPauseEntry `gorm:"foreignKey:AssignmentID" json:"pause_history"`
}

func (TaskAssignment) TableName() string {
	return "task_assignments"
}

// TaskPauseEntry - одна запись журнала пауз (append-only)
type TaskPauseEntry struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	AssignmentID uint       `gorm:"not null;index" json:"assignment_id"`
	PausedAt     time.Time  `gorm:"not null" json:"paused_at"`
	ResumedAt    *time.Time `json:"resumed_at"`
	Reason       string     `gorm:"type:varchar(255)" json:"reason"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (TaskPauseEntry) TableName() string {
	return "task_pause_entries"
}

// CanApply проверяет, разрешено ли действие из текущего статуса
func (ta *TaskAssignment) CanApply(action TaskAction) bool {
	for _, from := range taskTransitions[action] {
		if ta.Status == from {
			return true
		}
	}
	return false
}

// OpenPause возвращает незакрытую запись паузы, если она есть
func (ta *TaskAssignment) OpenPause() *TaskPauseEntry {
	for i := len(ta.PauseHistory) - 1; i >= 0; i-- {
		if ta.PauseHistory[i].ResumedAt == nil {
			return &ta.PauseHistory[i]
		}
	}
	return nil
}

// ApplyProgress обновляет progress_percent и progress_today одной операцией.
// Оба поля всегда меняются вместе - рассинхронизация между ними недопустима.
func (ta *TaskAssignment) ApplyProgress(completedQuantity float64, reportedPercent int) {
	if ta.TargetQuantity > 0 {
		ta.ProgressPercent = int(math.Round(100 * completedQuantity / ta.TargetQuantity))
	} else {
		ta.ProgressPercent = reportedPercent
	}
	if ta.ProgressPercent > 100 {
		ta.ProgressPercent = 100
	}
	if ta.ProgressPercent < 0 {
		ta.ProgressPercent = 0
	}
	ta.ProgressToday = completedQuantity
}

// IsValid проверяет валидность данных
func (ta *TaskAssignment) IsValid() bool {
	if ta.EmployeeID == 0 || ta.ProjectID == 0 || ta.TaskID == 0 {
		return false
	}
	if ta.WorkDate.IsZero() {
		return false
	}
	if ta.ProgressPercent < 0 || ta.ProgressPercent > 100 {
		return false
	}
	if ta.TargetQuantity < 0 || ta.ProgressToday < 0 {
		return false
	}
	switch ta.Status {
	case TaskQueued, TaskInProgress, TaskPaused, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}
