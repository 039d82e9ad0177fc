package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/schedule"
	"github.com/lucap2714-svg/fisiostudio/internal/service"
)

type ScheduleHandler struct {
	scheduleService service.ScheduleService
	loc             *time.Location
	now             func() time.Time
}

// NewScheduleHandler creates a ScheduleHandler; loc is the studio time zone
// used when a request omits the date.
func NewScheduleHandler(scheduleService service.ScheduleService, loc *time.Location) *ScheduleHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleHandler{scheduleService: scheduleService, loc: loc, now: time.Now}
}

// --- DTOs ---

type AttendeeResponse struct {
	StudentID string                  `json:"studentId"`
	Name      string                  `json:"name"`
	Status    domain.AttendanceStatus `json:"status"`
	Recurring bool                    `json:"recurring"`
	Implicit  bool                    `json:"implicit"`
	Booking   *domain.Booking         `json:"booking,omitempty"`
}

type SlotResponse struct {
	Date      domain.Date        `json:"date"`
	Time      domain.TimeOfDay   `json:"time"`
	Session   *domain.Session    `json:"session,omitempty"`
	Attendees []AttendeeResponse `json:"attendees"`
}

type DayResponse struct {
	Date  domain.Date    `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

func mapSlotToResponse(slot schedule.Slot) SlotResponse {
	out := SlotResponse{
		Date:      slot.Date,
		Time:      slot.Time,
		Session:   slot.Session,
		Attendees: make([]AttendeeResponse, 0, len(slot.Attendees)),
	}
	for _, a := range slot.Attendees {
		out.Attendees = append(out.Attendees, AttendeeResponse{
			StudentID: a.StudentID,
			Name:      a.Name,
			Status:    a.Status,
			Recurring: a.Recurring,
			Implicit:  a.Implicit(),
			Booking:   a.Booking,
		})
	}
	return out
}

type CreateSessionRequest struct {
	Date       domain.Date      `json:"date" binding:"required"`
	StartTime  domain.TimeOfDay `json:"startTime"`
	StudentIDs []string         `json:"studentIds" binding:"required"`
}

type BookRequest struct {
	StudentID       string `json:"studentId" binding:"required"`
	ConfirmWaitlist bool   `json:"confirmWaitlist"`
}

type CheckInRequest struct {
	Method domain.CheckInMethod `json:"method"`
}

type AbsenceRequest struct {
	Justification string `json:"justification"`
}

type SlotCheckInRequest struct {
	service.SlotRef
	Method domain.CheckInMethod `json:"method"`
}

type SlotAbsenceRequest struct {
	service.SlotRef
	Justification string `json:"justification"`
}

// --- Handler Methods ---

// GetDay godoc
// @Summary Resolve the schedule of a day
// @Description Recurring students and explicit bookings grouped by start time. Defaults to today in the studio time zone.
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {object} DayResponse
// @Failure 400 {object} gin.H "Invalid date"
// @Router /schedule [get]
func (h *ScheduleHandler) GetDay(c *gin.Context) {
	date := domain.DateOf(h.now().In(h.loc))
	if q := c.Query("date"); q != "" {
		d, err := domain.ParseDate(q)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		date = d
	}
	day, err := h.scheduleService.Day(c.Request.Context(), date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	resp := DayResponse{Date: day.Date, Slots: make([]SlotResponse, 0, len(day.Slots))}
	for _, slot := range day.Slots {
		resp.Slots = append(resp.Slots, mapSlotToResponse(slot))
	}
	c.JSON(http.StatusOK, resp)
}

// CreateSession godoc
// @Summary Schedule a session
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSessionRequest true "Slot and students"
// @Success 201 {object} domain.Session
// @Failure 400 {object} gin.H "Validation error"
// @Failure 409 {object} gin.H "A session already exists in the slot"
// @Router /sessions [post]
func (h *ScheduleHandler) CreateSession(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if _, err := domain.ParseDate(string(req.Date)); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := h.scheduleService.CreateSession(c.Request.Context(), actor, req.Date, req.StartTime, req.StudentIDs)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *ScheduleHandler) GetSession(c *gin.Context) {
	sess, err := h.scheduleService.GetSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *ScheduleHandler) DeleteSession(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.scheduleService.DeleteSession(c.Request.Context(), actor, c.Param("sessionId")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) GetRoster(c *gin.Context) {
	bookings, err := h.scheduleService.Roster(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

// GetWaitlist returns the waitlisted bookings of a session, oldest first.
func (h *ScheduleHandler) GetWaitlist(c *gin.Context) {
	bookings, err := h.scheduleService.Waitlist(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

// BookStudent godoc
// @Summary Book a student into a session
// @Description A full session answers 409 SESSION_FULL unless confirmWaitlist is set, in which case the booking is WAITLISTED.
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BookRequest true "Student and waitlist opt-in"
// @Success 201 {object} domain.Booking
// @Failure 404 {object} gin.H "Session or student not found"
// @Failure 409 {object} gin.H "Session full or student already booked"
// @Router /sessions/{sessionId}/bookings [post]
func (h *ScheduleHandler) BookStudent(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	b, err := h.scheduleService.BookStudent(c.Request.Context(), actor, c.Param("sessionId"), req.StudentID, req.ConfirmWaitlist)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *ScheduleHandler) CheckIn(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if req.Method == "" {
		req.Method = domain.CheckInManual
	}
	b, err := h.scheduleService.CheckIn(c.Request.Context(), actor, c.Param("bookingId"), req.Method)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *ScheduleHandler) MarkAbsent(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req AbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	b, err := h.scheduleService.MarkAbsent(c.Request.Context(), actor, c.Param("bookingId"), req.Justification)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Promote moves a waitlisted booking to AWAITING, even past capacity.
func (h *ScheduleHandler) Promote(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	b, err := h.scheduleService.Promote(c.Request.Context(), actor, c.Param("bookingId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// RemoveBooking deletes the booking outright; there is no cancelled state.
func (h *ScheduleHandler) RemoveBooking(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.scheduleService.RemoveBooking(c.Request.Context(), actor, c.Param("bookingId")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SlotCheckIn checks a student in by slot, creating the session and booking
// when the student is only on the recurring schedule.
func (h *ScheduleHandler) SlotCheckIn(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req SlotCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if !validSlot(c, req.SlotRef) {
		return
	}
	if req.Method == "" {
		req.Method = domain.CheckInManual
	}
	b, err := h.scheduleService.CheckInSlot(c.Request.Context(), actor, req.SlotRef, req.Method)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *ScheduleHandler) SlotAbsence(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req SlotAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if !validSlot(c, req.SlotRef) {
		return
	}
	b, err := h.scheduleService.MarkAbsentSlot(c.Request.Context(), actor, req.SlotRef, req.Justification)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Reschedule godoc
// @Summary Move a student to another slot
// @Description Requires a reason. The source booking, if any, is deleted and an AWAITING booking is created at the target.
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.RescheduleRequest true "Source slot, target time and reason"
// @Success 200 {object} domain.Booking
// @Failure 400 {object} gin.H "Missing reason or invalid slot"
// @Router /slots/reschedule [post]
func (h *ScheduleHandler) Reschedule(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req service.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if !validSlot(c, req.From) {
		return
	}
	if req.NewDate != "" {
		if _, err := domain.ParseDate(string(req.NewDate)); err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	b, err := h.scheduleService.Reschedule(c.Request.Context(), actor, req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func validSlot(c *gin.Context, ref service.SlotRef) bool {
	if _, err := domain.ParseDate(string(ref.Date)); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return false
	}
	if ref.StudentID == "" {
		abortWithError(c, http.StatusBadRequest, "studentId is required")
		return false
	}
	return true
}
