package handler

import (
	"net/http"
	"time"

	"fieldforce-attendance/internal/service"

	"github.com/gin-gonic/gin"
)

type submitCorrectionRequest struct {
	SubmittedBy  uint       `json:"submitted_by" binding:"required"`
	CheckInAt    *time.Time `json:"check_in_at"`
	CheckOutAt   *time.Time `json:"check_out_at"`
	LunchStartAt *time.Time `json:"lunch_start_at"`
	LunchEndAt   *time.Time `json:"lunch_end_at"`
	Reason       string     `json:"reason" binding:"required"`
}

type reviewCorrectionRequest struct {
	ReviewedBy uint   `json:"reviewed_by" binding:"required"`
	Approve    bool   `json:"approve"`
	Note       string `json:"note"`
}

func (h *Handler) submitCorrection(c *gin.Context) {
	recordID, err := paramUint(c, "id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}

	var req submitCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	correction, err := h.correctionService.Submit(recordID, req.SubmittedBy, service.CorrectionRequest{
		CheckInAt:    req.CheckInAt,
		CheckOutAt:   req.CheckOutAt,
		LunchStartAt: req.LunchStartAt,
		LunchEndAt:   req.LunchEndAt,
		Reason:       req.Reason,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, correction)
}

func (h *Handler) reviewCorrection(c *gin.Context) {
	correctionID, err := paramUint(c, "id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}

	var req reviewCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	correction, err := h.correctionService.Review(correctionID, req.ReviewedBy, req.Approve, req.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, correction)
}

func (h *Handler) listCorrections(c *gin.Context) {
	recordID, err := paramUint(c, "id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}

	corrections, err := h.correctionService.ListForRecord(recordID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, corrections)
}

// effectiveAttendance возвращает запись с наложенными одобренными
// корректировками (исходная строка в базе не меняется)
func (h *Handler) effectiveAttendance(c *gin.Context) {
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

	record, corrections, err := h.correctionService.EffectiveRecord(employeeID, projectID, date)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record":      record,
		"corrections": corrections,
	})
}
