package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/service"
)

// maxImportSize bounds roster workbook uploads.
const maxImportSize = 10 << 20

type StudentHandler struct {
	studentService service.StudentService
	billingService service.BillingService
}

func NewStudentHandler(studentService service.StudentService, billingService service.BillingService) *StudentHandler {
	return &StudentHandler{studentService: studentService, billingService: billingService}
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ListStudents godoc
// @Summary List students
// @Description Active students sorted by name; ?all=true includes inactive ones.
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Student
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	students, err := h.studentService.ListStudents(c.Request.Context(), c.Query("all") == "true")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if students == nil {
		students = []domain.Student{}
	}
	c.JSON(http.StatusOK, students)
}

func (h *StudentHandler) GetStudent(c *gin.Context) {
	st, err := h.studentService.GetStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// CreateStudent godoc
// @Summary Register a student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param student body service.StudentInput true "Student data"
// @Success 201 {object} domain.Student
// @Failure 400 {object} gin.H "Validation error"
// @Router /students [post]
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req service.StudentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	st, err := h.studentService.CreateStudent(c.Request.Context(), actor, req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req service.StudentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	st, err := h.studentService.UpdateStudent(c.Request.Context(), actor, c.Param("studentId"), req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// SetActive deactivates or reactivates a student.
func (h *StudentHandler) SetActive(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	st, err := h.studentService.SetActive(c.Request.Context(), actor, c.Param("studentId"), *req.Active)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// SyncRoster adds the official roster students missing from the studio.
func (h *StudentHandler) SyncRoster(c *gin.Context) {
	added, err := h.studentService.SyncRoster(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

// ImportStudents godoc
// @Summary Import students from a spreadsheet
// @Description Multipart upload (field "file") of an XLSX sheet with ID, Name, Phone, Email columns.
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gin.H "Number of imported rows"
// @Failure 400 {object} gin.H "Missing or invalid file"
// @Router /students/import [post]
func (h *StudentHandler) ImportStudents(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Missing file: "+err.Error())
		return
	}
	if fileHeader.Size > maxImportSize {
		abortWithError(c, http.StatusBadRequest, "File too large.")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Unable to read file.")
		return
	}
	defer f.Close()

	n, err := h.studentService.ImportStudents(c.Request.Context(), actor, f)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

// RecordBilling appends a billing event for the student in the path.
func (h *StudentHandler) RecordBilling(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req service.BillingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	req.StudentID = c.Param("studentId")
	ev, err := h.billingService.RecordEvent(c.Request.Context(), actor, req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func (h *StudentHandler) ListBilling(c *gin.Context) {
	events, err := h.billingService.ListEvents(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	if events == nil {
		events = []domain.BillingEvent{}
	}
	c.JSON(http.StatusOK, events)
}
