package service

import (
	"testing"
	"time"

	"fieldforce-attendance/internal/apperror"
	"fieldforce-attendance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clockOutWorker завершает смену рабочего через 8 часов после отметки
func (f *engineFixture) clockOutWorker(t *testing.T) *models.AttendanceRecord {
	t.Helper()

	f.clockInWorker(t)
	f.clock.Advance(8 * time.Hour)
	record, err := f.attendance.ClockOut(f.worker.ID, f.project.ID)
	require.NoError(t, err)
	return record
}

func TestSubmitCorrectionByWorkerFails(t *testing.T) {
	f := newEngineFixture(t)
	record := f.clockOutWorker(t)

	later := f.clock.Now().Add(time.Hour)
	_, err := f.corrections.Submit(record.ID, f.worker.ID, CorrectionRequest{
		CheckOutAt: &later,
		Reason:     "forgot to clock out",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPreconditionFailed))
}

func TestSubmitCorrectionBySupervisor(t *testing.T) {
	f := newEngineFixture(t)
	record := f.clockOutWorker(t)

	later := f.clock.Now().Add(time.Hour)
	correction, err := f.corrections.Submit(record.ID, f.foreman.ID, CorrectionRequest{
		CheckOutAt: &later,
		Reason:     "forgot to clock out",
	})
	require.NoError(t, err)

	assert.Equal(t, models.CorrectionPending, correction.Status)
	assert.NotEmpty(t, correction.Reference)
	assert.Equal(t, f.foreman.ID, correction.SubmittedBy)
}

func TestSubmitCorrectionWithoutChangesFails(t *testing.T) {
	f := newEngineFixture(t)
	record := f.clockOutWorker(t)

	_, err := f.corrections.Submit(record.ID, f.foreman.ID, CorrectionRequest{
		Reason: "nothing really",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindPreconditionFailed))
}

func TestSubmitCorrectionWithoutReasonFails(t *testing.T) {
	f := newEngineFixture(t)
	record := f.clockOutWorker(t)

	later := f.clock.Now().Add(time.Hour)
	_, err := f.corrections.Submit(record.ID, f.foreman.ID, CorrectionRequest{
		CheckOutAt: &later,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindPreconditionFailed))
}

func TestSubmitCorrectionForMissingRecordFails(t *testing.T) {
	f := newEngineFixture(t)

	later := f.clock.Now()
	_, err := f.corrections.Submit(9999, f.foreman.ID, CorrectionRequest{
		CheckOutAt: &later,
		Reason:     "ghost record",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestApprovedCorrectionOverlaysAtReadTime(t *testing.T) {
	f := newEngineFixture(t)
	record := f.clockOutWorker(t)

	// Прораб сдвигает уход на два часа позже
	newCheckOut := f.clock.Now().Add(2 * time.Hour)
	correction, err := f.corrections.Submit(record.ID, f.foreman.ID, CorrectionRequest{
		CheckOutAt: &newCheckOut,
		Reason:     "worker stayed for concrete pour",
	})
	require.NoError(t, err)

	_, err = f.corrections.Review(correction.ID, f.foreman.ID, true, "confirmed with site log")
	require.NoError(t, err)

	effective, approved, err := f.corrections.EffectiveRecord(f.worker.ID, f.project.ID, f.clock.Now())
	require.NoError(t, err)
	require.Len(t, approved, 1)

	// Эффективная запись: 10 часов на объекте -> 8 обычных + 2 переработки
	assert.True(t, effective.CheckOutAt.Equal(newCheckOut))
	assert.InDelta(t, 8.0, effective.RegularHours, 0.02)
	assert.InDelta(t, 2.0, effective.OvertimeHours, 0.02)

	// Сохраненная строка не тронута
	stored, err := f.attendanceRepo.GetByID(record.ID)
	require.NoError(t, err)
	assert.True(t, stored.CheckOutAt.Equal(*record.CheckOutAt))
	assert.InDelta(t, 8.0, stored.RegularHours, 0.02)
	assert.Zero(t, stored.OvertimeHours)
}

func TestRejectedCorrectionIsNotApplied(t *testing.T) {
	f := newEngineFixture(t)
	record := f.clockOutWorker(t)

	newCheckOut := f.clock.Now().Add(2 * time.Hour)
	correction, err := f.corrections.Submit(record.ID, f.foreman.ID, CorrectionRequest{
		CheckOutAt: &newCheckOut,
		Reason:     "worker stayed late",
	})
	require.NoError(t, err)

	reviewed, err := f.corrections.Review(correction.ID, f.foreman.ID, false, "no evidence")
	require.NoError(t, err)
	assert.Equal(t, models.CorrectionRejected, reviewed.Status)
	assert.Equal(t, "no evidence", reviewed.ReviewNote)

	effective, approved, err := f.corrections.EffectiveRecord(f.worker.ID, f.project.ID, f.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, approved)
	assert.True(t, effective.CheckOutAt.Equal(*record.CheckOutAt))
}

func TestReviewTwiceFails(t *testing.T) {
	f := newEngineFixture(t)
	record := f.clockOutWorker(t)

	newCheckOut := f.clock.Now().Add(time.Hour)
	correction, err := f.corrections.Submit(record.ID, f.foreman.ID, CorrectionRequest{
		CheckOutAt: &newCheckOut,
		Reason:     "late pour",
	})
	require.NoError(t, err)

	_, err = f.corrections.Review(correction.ID, f.foreman.ID, true, "")
	require.NoError(t, err)

	_, err = f.corrections.Review(correction.ID, f.foreman.ID, false, "changed my mind")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidStateTransition))
}

func TestLaterCorrectionOverridesEarlier(t *testing.T) {
	f := newEngineFixture(t)
	record := f.clockOutWorker(t)

	firstCheckOut := f.clock.Now().Add(time.Hour)
	first, err := f.corrections.Submit(record.ID, f.foreman.ID, CorrectionRequest{
		CheckOutAt: &firstCheckOut,
		Reason:     "stayed one hour",
	})
	require.NoError(t, err)
	_, err = f.corrections.Review(first.ID, f.foreman.ID, true, "")
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	secondCheckOut := f.clock.Now().Add(2 * time.Hour)
	second, err := f.corrections.Submit(record.ID, f.foreman.ID, CorrectionRequest{
		CheckOutAt: &secondCheckOut,
		Reason:     "actually two hours",
	})
	require.NoError(t, err)
	_, err = f.corrections.Review(second.ID, f.foreman.ID, true, "")
	require.NoError(t, err)

	effective, approved, err := f.corrections.EffectiveRecord(f.worker.ID, f.project.ID, f.clock.Now())
	require.NoError(t, err)
	require.Len(t, approved, 2)
	assert.True(t, effective.CheckOutAt.Equal(secondCheckOut))
}

func TestCorrectionJournalKeepsAllEntries(t *testing.T) {
	f := newEngineFixture(t)
	record := f.clockOutWorker(t)

	for i := 0; i < 3; i++ {
		checkOut := f.clock.Now().Add(time.Duration(i+1) * time.Hour)
		_, err := f.corrections.Submit(record.ID, f.foreman.ID, CorrectionRequest{
			CheckOutAt: &checkOut,
			Reason:     "attempt",
		})
		require.NoError(t, err)
	}

	journal, err := f.corrections.ListForRecord(record.ID)
	require.NoError(t, err)
	assert.Len(t, journal, 3)
}
