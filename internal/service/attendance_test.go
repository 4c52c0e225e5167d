package service

import (
	"testing"
	"time"

	"fieldforce-attendance/internal/apperror"
	"fieldforce-attendance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockInSuccess(t *testing.T) {
	f := newEngineFixture(t)

	record := f.clockInWorker(t)

	assert.Equal(t, models.AttendanceClockedIn, record.Status)
	require.NotNil(t, record.CheckInAt)
	assert.True(t, record.CheckInAt.Equal(f.clock.Now()))
	assert.Equal(t, 480, record.ScheduledShiftMinutes)
	assert.Equal(t, uint(1), record.Version)
}

func TestClockInTwiceFails(t *testing.T) {
	f := newEngineFixture(t)

	first := f.clockInWorker(t)

	_, err := f.attendance.ClockIn(f.worker.ID, f.project.ID, siteSample())
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidStateTransition))

	// Запись не изменилась
	reloaded, err := f.attendanceRepo.GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceClockedIn, reloaded.Status)
	assert.Equal(t, uint(1), reloaded.Version)
}

func TestClockInOutsideGeofence(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.attendance.ClockIn(f.worker.ID, f.project.ID, farSample())
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindOutsideGeofence))

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, "distance_meters")
	assert.Contains(t, appErr.Details, "effective_radius")
	assert.InDelta(t, 1000.0, appErr.Details["distance_meters"].(float64), 10)

	// Запись не создана
	_, err = f.attendance.Status(f.worker.ID, f.project.ID, f.clock.Now())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestClockInWithoutGeofence(t *testing.T) {
	f := newEngineFixture(t)

	bare := &models.Project{Name: "Yard", ScheduledShiftMinutes: 480}
	require.NoError(t, f.projectRepo.Create(bare))

	// По умолчанию отметка без геозоны отклоняется
	_, err := f.attendance.ClockIn(f.worker.ID, bare.ID, siteSample())
	assert.True(t, apperror.IsKind(err, apperror.KindConfigurationMissing))

	// Проект может явно разрешить обход
	bypass := &models.Project{Name: "Depot", ScheduledShiftMinutes: 480, GeofenceBypassAllowed: true}
	require.NoError(t, f.projectRepo.Create(bypass))

	record, err := f.attendance.ClockIn(f.worker.ID, bypass.ID, siteSample())
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceClockedIn, record.Status)
}

func TestLunchRoundTrip(t *testing.T) {
	f := newEngineFixture(t)
	f.clockInWorker(t)

	f.clock.Advance(4 * time.Hour)
	record, err := f.attendance.LunchStart(f.worker.ID, f.project.ID, siteSample())
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceOnLunch, record.Status)

	f.clock.Advance(30 * time.Minute)
	record, err = f.attendance.LunchEnd(f.worker.ID, f.project.ID)
	require.NoError(t, err)

	assert.Equal(t, models.AttendanceClockedIn, record.Status)
	assert.Equal(t, 30, record.LunchDurationMinutes)
}

func TestLunchEndWithoutLunchFails(t *testing.T) {
	f := newEngineFixture(t)
	f.clockInWorker(t)

	_, err := f.attendance.LunchEnd(f.worker.ID, f.project.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidStateTransition))
}

func TestTransitionWithoutRecordFails(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.attendance.LunchStart(f.worker.ID, f.project.ID, siteSample())
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidStateTransition))

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, string(models.AttendanceNotClockedIn), appErr.Details["current_status"])
}

func TestClockOutEightHours(t *testing.T) {
	f := newEngineFixture(t)
	f.clockInWorker(t)

	f.clock.Advance(8 * time.Hour)
	record, err := f.attendance.ClockOut(f.worker.ID, f.project.ID)
	require.NoError(t, err)

	assert.Equal(t, models.AttendanceClockedOut, record.Status)
	assert.InDelta(t, 8.0, record.RegularHours, 0.02)
	assert.Zero(t, record.OvertimeHours)
}

func TestClockOutReconcilesImplicitOvertime(t *testing.T) {
	f := newEngineFixture(t)
	f.clockInWorker(t)

	// overtime-start не вызывался, но переработка должна быть учтена
	f.clock.Advance(10 * time.Hour)
	record, err := f.attendance.ClockOut(f.worker.ID, f.project.ID)
	require.NoError(t, err)

	assert.InDelta(t, 8.0, record.RegularHours, 0.02)
	assert.InDelta(t, 2.0, record.OvertimeHours, 0.02)
}

func TestClockOutSubtractsLunch(t *testing.T) {
	f := newEngineFixture(t)
	f.clockInWorker(t)

	f.clock.Advance(4 * time.Hour)
	_, err := f.attendance.LunchStart(f.worker.ID, f.project.ID, siteSample())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.attendance.LunchEnd(f.worker.ID, f.project.ID)
	require.NoError(t, err)

	f.clock.Advance(4 * time.Hour)
	record, err := f.attendance.ClockOut(f.worker.ID, f.project.ID)
	require.NoError(t, err)

	// 9 часов на объекте минус час обеда
	assert.InDelta(t, 8.0, record.RegularHours, 0.02)
	assert.Zero(t, record.OvertimeHours)
	assert.Equal(t, 60, record.LunchDurationMinutes)
}

func TestOvertimeStartBeforeShiftComplete(t *testing.T) {
	f := newEngineFixture(t)
	f.clockInWorker(t)

	f.clock.Advance(5 * time.Hour)
	_, err := f.attendance.OvertimeStart(f.worker.ID, f.project.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPreconditionFailed))
}

func TestOvertimeStartAfterShift(t *testing.T) {
	f := newEngineFixture(t)
	f.clockInWorker(t)

	f.clock.Advance(8*time.Hour + 5*time.Minute)
	record, err := f.attendance.OvertimeStart(f.worker.ID, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceOnOvertime, record.Status)
	require.NotNil(t, record.OvertimeStartAt)

	f.clock.Advance(time.Hour)
	record, err = f.attendance.ClockOut(f.worker.ID, f.project.ID)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, record.RegularHours, 0.02)
	assert.InDelta(t, 1.08, record.OvertimeHours, 0.02)
}

func TestClockOutFromLunchFails(t *testing.T) {
	f := newEngineFixture(t)
	f.clockInWorker(t)

	f.clock.Advance(4 * time.Hour)
	_, err := f.attendance.LunchStart(f.worker.ID, f.project.ID, siteSample())
	require.NoError(t, err)

	_, err = f.attendance.ClockOut(f.worker.ID, f.project.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidStateTransition))
}

func TestStaleVersionWriteConflict(t *testing.T) {
	f := newEngineFixture(t)
	record := f.clockInWorker(t)

	// Первый запрос читает запись...
	stale, err := f.attendanceRepo.GetByID(record.ID)
	require.NoError(t, err)
	staleVersion := stale.Version

	// ...второй успевает обновить её
	f.clock.Advance(4 * time.Hour)
	_, err = f.attendance.LunchStart(f.worker.ID, f.project.ID, siteSample())
	require.NoError(t, err)

	// Запись первого запроса должна быть отвергнута
	stale.Status = models.AttendanceOnOvertime
	err = f.attendanceRepo.UpdateWithVersion(stale, staleVersion)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConcurrentModification))
}

func TestConcurrentClockInLosesOnUniqueIndex(t *testing.T) {
	f := newEngineFixture(t)
	f.clockInWorker(t)

	// Второй insert с тем же (employee, project, date) - двойное нажатие,
	// проскочившее проверку существования
	now := f.clock.Now()
	duplicate := &models.AttendanceRecord{
		EmployeeID:            f.worker.ID,
		ProjectID:             f.project.ID,
		WorkDate:              now,
		Status:                models.AttendanceClockedIn,
		CheckInAt:             &now,
		ScheduledShiftMinutes: 480,
	}

	err := f.attendanceRepo.Create(duplicate)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConcurrentModification))
}

func TestAttendanceStatusLookup(t *testing.T) {
	f := newEngineFixture(t)
	created := f.clockInWorker(t)

	record, err := f.attendance.Status(f.worker.ID, f.project.ID, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, created.ID, record.ID)

	_, err = f.attendance.Status(f.worker.ID, f.project.ID, f.clock.Now().AddDate(0, 0, 1))
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
