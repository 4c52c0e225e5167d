package handler

import (
	"net/http"
	"strconv"
	"time"

	"fieldforce-attendance/pkg/geofence"

	"github.com/gin-gonic/gin"
)

type attendanceActionRequest struct {
	EmployeeID uint    `json:"employee_id" binding:"required"`
	ProjectID  uint    `json:"project_id" binding:"required"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Accuracy   float64 `json:"accuracy"`
}

// sample собирает GPS-показание; время фиксации - серверное
func (req *attendanceActionRequest) sample() geofence.Sample {
	return geofence.Sample{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyMeters: req.Accuracy,
		CapturedAt:     time.Now(),
	}
}

func (h *Handler) validateLocation(c *gin.Context) {
	employeeID, err := queryUint(c, "employee_id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}
	projectID, err := queryUint(c, "project_id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}
	accuracy, _ := strconv.ParseFloat(c.Query("accuracy"), 64)

	check, err := h.attendanceService.ValidateLocation(employeeID, projectID, geofence.Sample{
		Latitude:       lat,
		Longitude:      lng,
		AccuracyMeters: accuracy,
		CapturedAt:     time.Now(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, check)
}

func (h *Handler) clockIn(c *gin.Context) {
	var req attendanceActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	record, err := h.attendanceService.ClockIn(req.EmployeeID, req.ProjectID, req.sample())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) lunchStart(c *gin.Context) {
	var req attendanceActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	record, err := h.attendanceService.LunchStart(req.EmployeeID, req.ProjectID, req.sample())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) lunchEnd(c *gin.Context) {
	var req attendanceActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	record, err := h.attendanceService.LunchEnd(req.EmployeeID, req.ProjectID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) overtimeStart(c *gin.Context) {
	var req attendanceActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	record, err := h.attendanceService.OvertimeStart(req.EmployeeID, req.ProjectID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) clockOut(c *gin.Context) {
	var req attendanceActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	record, err := h.attendanceService.ClockOut(req.EmployeeID, req.ProjectID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) attendanceStatus(c *gin.Context) {
	employeeID, err := queryUint(c, "employee_id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}
	projectID, err := queryUint(c, "project_id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}
	date, err := queryDate(c, "date")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}

	record, err := h.attendanceService.Status(employeeID, projectID, date)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func queryUint(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

// queryDate парсит дату из запроса; пустое значение - сегодня
func queryDate(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", raw)
}

func paramUint(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
