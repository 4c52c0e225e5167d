package handler

import (
	"errors"
	"net/http"

	"fieldforce-attendance/internal/apperror"
	"fieldforce-attendance/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler - тонкий HTTP-фасад движка. Никакой бизнес-логики:
// разбор запроса, вызов сервиса, отображение ошибки в статус.
type Handler struct {
	attendanceService *service.AttendanceService
	taskService       *service.TaskAssignmentService
	summaryService    *service.DailySummaryService
	correctionService *service.CorrectionService
	logger            *logrus.Logger
}

func NewHandler(
	attendanceService *service.AttendanceService,
	taskService *service.TaskAssignmentService,
	summaryService *service.DailySummaryService,
	correctionService *service.CorrectionService,
) *Handler {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Handler{
		attendanceService: attendanceService,
		taskService:       taskService,
		summaryService:    summaryService,
		correctionService: correctionService,
		logger:            logger,
	}
}

func (h *Handler) Register(router *gin.Engine) {
	api := router.Group("/api/v1")

	attendance := api.Group("/attendance")
	attendance.GET("/validate-location", h.validateLocation)
	attendance.POST("/clock-in", h.clockIn)
	attendance.POST("/lunch-start", h.lunchStart)
	attendance.POST("/lunch-end", h.lunchEnd)
	attendance.POST("/overtime-start", h.overtimeStart)
	attendance.POST("/clock-out", h.clockOut)
	attendance.GET("/status", h.attendanceStatus)
	attendance.GET("/effective", h.effectiveAttendance)
	attendance.POST("/records/:id/corrections", h.submitCorrection)
	attendance.GET("/records/:id/corrections", h.listCorrections)

	api.POST("/corrections/:id/review", h.reviewCorrection)

	tasks := api.Group("/tasks")
	tasks.GET("/:id", h.getTask)
	tasks.POST("/:id/start", h.startTask)
	tasks.POST("/:id/pause", h.pauseTask)
	tasks.POST("/:id/resume", h.resumeTask)
	tasks.PATCH("/:id/progress", h.updateTaskProgress)
	tasks.POST("/:id/complete", h.completeTask)
	tasks.POST("/:id/cancel", h.cancelTask)

	api.GET("/employees/:id/daily-summary", h.dailySummary)
}

// respondError отображает ошибку движка в HTTP-ответ
func (h *Handler) respondError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		h.logger.WithError(err).Error("Unexpected engine error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{
		"kind":  appErr.Kind,
		"error": appErr.Message,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}

	c.JSON(apperror.HTTPStatus(appErr.Kind), body)
}

func (h *Handler) respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
}
