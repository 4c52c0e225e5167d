package repository

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fieldforce-attendance/internal/apperror"
	"fieldforce-attendance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:repo_%s_%d?mode=memory&cache=shared", name, testDBCounter.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return db
}

func newRecord(day time.Time) *models.AttendanceRecord {
	checkIn := day
	return &models.AttendanceRecord{
		EmployeeID:            1,
		ProjectID:             1,
		WorkDate:              day,
		Status:                models.AttendanceClockedIn,
		CheckInAt:             &checkIn,
		ScheduledShiftMinutes: 480,
	}
}

func TestAttendanceCreateAssignsVersion(t *testing.T) {
	repo, err := NewGormAttendanceRepository(newTestDB(t))
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 7, 45, 0, 0, time.UTC)
	record := newRecord(day)
	require.NoError(t, repo.Create(record))

	assert.Equal(t, uint(1), record.Version)
	// Дата нормализуется до календарного дня
	assert.Equal(t, DateOnly(day), record.WorkDate)
}

func TestAttendanceDuplicateDayRejected(t *testing.T) {
	repo, err := NewGormAttendanceRepository(newTestDB(t))
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(newRecord(day)))

	// Тот же день, другое время - все равно конфликт
	err = repo.Create(newRecord(day.Add(3 * time.Hour)))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConcurrentModification))
}

func TestAttendanceStaleVersionRejected(t *testing.T) {
	repo, err := NewGormAttendanceRepository(newTestDB(t))
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record := newRecord(day)
	require.NoError(t, repo.Create(record))

	require.NoError(t, repo.UpdateWithVersion(record, 1))
	assert.Equal(t, uint(2), record.Version)

	// Повторная запись с уже израсходованной версией
	err = repo.UpdateWithVersion(record, 1)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConcurrentModification))
}

func TestAttendanceUpdatePersistsZeroValues(t *testing.T) {
	repo, err := NewGormAttendanceRepository(newTestDB(t))
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record := newRecord(day)
	record.LunchDurationMinutes = 45
	require.NoError(t, repo.Create(record))

	// Обнуление поля должно дойти до базы
	record.LunchDurationMinutes = 0
	require.NoError(t, repo.UpdateWithVersion(record, 1))

	reloaded, err := repo.GetByID(record.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.LunchDurationMinutes)
}

func TestAttendanceLookupByDay(t *testing.T) {
	repo, err := NewGormAttendanceRepository(newTestDB(t))
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record := newRecord(day)
	require.NoError(t, repo.Create(record))

	// Любое время того же дня находит запись
	found, err := repo.GetByEmployeeProjectDate(1, 1, day.Add(9*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, record.ID, found.ID)

	// Соседний день - nil, nil
	missing, err := repo.GetByEmployeeProjectDate(1, 1, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAttendanceGetByIDNotFound(t *testing.T) {
	repo, err := NewGormAttendanceRepository(newTestDB(t))
	require.NoError(t, err)

	record, err := repo.GetByID(42)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestAttendanceListByEmployeeAndDate(t *testing.T) {
	repo, err := NewGormAttendanceRepository(newTestDB(t))
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	first := newRecord(day)
	require.NoError(t, repo.Create(first))

	second := newRecord(day)
	second.ProjectID = 2
	require.NoError(t, repo.Create(second))

	records, err := repo.GetByEmployeeAndDate(1, day)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint(1), records[0].ProjectID)
	assert.Equal(t, uint(2), records[1].ProjectID)
}
