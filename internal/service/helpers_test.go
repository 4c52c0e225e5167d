package service

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fieldforce-attendance/internal/config"
	"fieldforce-attendance/internal/models"
	"fieldforce-attendance/internal/repository"
	"fieldforce-attendance/pkg/geofence"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, testDBCounter.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return db
}

// testClock - управляемый источник времени для сервисов
type testClock struct {
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{
		current: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
}

func (c *testClock) Now() time.Time {
	return c.current
}

func (c *testClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

// Центр тестового проекта и точки вокруг него
const (
	siteLatitude  = 9.908612
	siteLongitude = 78.090842
)

func siteSample() geofence.Sample {
	return geofence.Sample{
		Latitude:       siteLatitude,
		Longitude:      siteLongitude,
		AccuracyMeters: 5,
		CapturedAt:     time.Now(),
	}
}

func farSample() geofence.Sample {
	// ~1000 м к северу от центра
	return geofence.Sample{
		Latitude:       siteLatitude + 0.009,
		Longitude:      siteLongitude,
		AccuracyMeters: 5,
		CapturedAt:     time.Now(),
	}
}

type engineFixture struct {
	db             *gorm.DB
	clock          *testClock
	cfg            *config.EngineConfig
	attendanceRepo *repository.GormAttendanceRepository
	projectRepo    *repository.GormProjectRepository
	taskRepo       *repository.GormTaskAssignmentRepository
	employeeRepo   *repository.GormEmployeeRepository
	correctionRepo *repository.GormAttendanceCorrectionRepository

	attendance  *AttendanceService
	tasks       *TaskAssignmentService
	summary     *DailySummaryService
	corrections *CorrectionService

	project *models.Project
	worker  *models.Employee
	foreman *models.Employee
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	db := newTestDB(t)
	cfg := config.Default()
	clock := newTestClock()

	attendanceRepo, err := repository.NewGormAttendanceRepository(db)
	require.NoError(t, err)
	projectRepo, err := repository.NewGormProjectRepository(db)
	require.NoError(t, err)
	taskRepo, err := repository.NewGormTaskAssignmentRepository(db)
	require.NoError(t, err)
	employeeRepo, err := repository.NewGormEmployeeRepository(db)
	require.NoError(t, err)
	correctionRepo, err := repository.NewGormAttendanceCorrectionRepository(db)
	require.NoError(t, err)

	f := &engineFixture{
		db:             db,
		clock:          clock,
		cfg:            cfg,
		attendanceRepo: attendanceRepo,
		projectRepo:    projectRepo,
		taskRepo:       taskRepo,
		employeeRepo:   employeeRepo,
		correctionRepo: correctionRepo,
	}

	f.attendance = NewAttendanceService(attendanceRepo, projectRepo, cfg)
	f.attendance.SetClock(clock.Now)
	f.tasks = NewTaskAssignmentService(taskRepo, attendanceRepo, cfg)
	f.tasks.SetClock(clock.Now)
	f.summary = NewDailySummaryService(taskRepo, attendanceRepo)
	f.corrections = NewCorrectionService(correctionRepo, attendanceRepo, employeeRepo)
	f.corrections.SetClock(clock.Now)

	lat := siteLatitude
	lng := siteLongitude
	f.project = &models.Project{
		Name:                  "Riverside Tower",
		CenterLatitude:        &lat,
		CenterLongitude:       &lng,
		GeofenceRadiusMeters:  100,
		AllowedVarianceMeters: 50,
		ScheduledShiftMinutes: 480,
	}
	require.NoError(t, projectRepo.Create(f.project))

	f.worker = &models.Employee{FirstName: "Arun", LastName: "Kumar", Role: models.RoleWorker}
	require.NoError(t, employeeRepo.Create(f.worker))

	f.foreman = &models.Employee{FirstName: "Ravi", LastName: "Shankar", Role: models.RoleSupervisor}
	require.NoError(t, employeeRepo.Create(f.foreman))

	return f
}

// clockInWorker отмечает рабочего на объекте через сервис
func (f *engineFixture) clockInWorker(t *testing.T) *models.AttendanceRecord {
	t.Helper()

	record, err := f.attendance.ClockIn(f.worker.ID, f.project.ID, siteSample())
	require.NoError(t, err)
	return record
}

// createAssignment создает назначение в статусе queued
func (f *engineFixture) createAssignment(t *testing.T, sequence int, targetQuantity float64) *models.TaskAssignment {
	t.Helper()

	assignment := &models.TaskAssignment{
		EmployeeID:     f.worker.ID,
		ProjectID:      f.project.ID,
		TaskID:         uint(100 + sequence),
		WorkDate:       f.clock.Now(),
		Status:         models.TaskQueued,
		Sequence:       sequence,
		TargetQuantity: targetQuantity,
		TargetUnit:     "m2",
	}
	require.NoError(t, f.taskRepo.Create(assignment))
	return assignment
}
