package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type startTaskRequest struct {
	EmployeeID uint `json:"employee_id" binding:"required"`
}

type pauseTaskRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type updateProgressRequest struct {
	CompletedQuantity float64 `json:"completed_quantity"`
	ProgressPercent   int     `json:"progress_percent"`
}

type cancelTaskRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) getTask(c *gin.Context) {
	assignmentID, err := paramUint(c, "id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}

	assignment, err := h.taskService.GetByID(assignmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

func (h *Handler) startTask(c *gin.Context) {
	assignmentID, err := paramUint(c, "id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}

	var req startTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	assignment, err := h.taskService.Start(assignmentID, req.EmployeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

func (h *Handler) pauseTask(c *gin.Context) {
	assignmentID, err := paramUint(c, "id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}

	var req pauseTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	assignment, err := h.taskService.Pause(assignmentID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

func (h *Handler) resumeTask(c *gin.Context) {
	assignmentID, err := paramUint(c, "id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}

	assignment, err := h.taskService.Resume(assignmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

func (h *Handler) updateTaskProgress(c *gin.Context) {
	assignmentID, err := paramUint(c, "id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}

	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	assignment, err := h.taskService.UpdateProgress(assignmentID, req.CompletedQuantity, req.ProgressPercent)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

func (h *Handler) completeTask(c *gin.Context) {
	assignmentID, err := paramUint(c, "id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}

	assignment, err := h.taskService.Complete(assignmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

func (h *Handler) cancelTask(c *gin.Context) {
	assignmentID, err := paramUint(c, "id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}

	var req cancelTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	assignment, err := h.taskService.Cancel(assignmentID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}
