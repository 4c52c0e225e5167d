package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) dailySummary(c *gin.Context) {
	employeeID, err := paramUint(c, "id")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}
	date, err := queryDate(c, "date")
	if err != nil {
		h.respondBadRequest(c, err)
		return
	}

	summary, err := h.summaryService.GetDailySummary(employeeID, date)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
