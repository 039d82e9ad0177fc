package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lucap2714-svg/fisiostudio/internal/service"
)

type KioskHandler struct {
	kioskService service.KioskService
}

func NewKioskHandler(kioskService service.KioskService) *KioskHandler {
	return &KioskHandler{kioskService: kioskService}
}

type KioskCheckInRequest struct {
	StudentID string `json:"studentId" binding:"required"`
}

type UnlockRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// ListLive godoc
// @Summary Students of the sessions in progress
// @Tags Kiosk
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name filter"
// @Success 200 {array} service.LiveAttendee
// @Router /kiosk/live [get]
func (h *KioskHandler) ListLive(c *gin.Context) {
	rows, err := h.kioskService.LiveAttendees(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	if rows == nil {
		rows = []service.LiveAttendee{}
	}
	c.JSON(http.StatusOK, rows)
}

// CheckIn godoc
// @Summary Walk-up check-in
// @Description Marks the student PRESENT (method QR) in the session in progress.
// @Tags Kiosk
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body KioskCheckInRequest true "Student"
// @Success 200 {object} domain.Booking
// @Failure 400 {object} gin.H "No session in progress for the student"
// @Failure 409 {object} gin.H "Booking is waitlisted"
// @Router /kiosk/check-in [post]
func (h *KioskHandler) CheckIn(c *gin.Context) {
	var req KioskCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	b, err := h.kioskService.CheckIn(c.Request.Context(), req.StudentID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Unlock verifies the exit PIN of the kiosk.
func (h *KioskHandler) Unlock(c *gin.Context) {
	var req UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if err := h.kioskService.Unlock(c.Request.Context(), req.PIN); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unlocked": true})
}
