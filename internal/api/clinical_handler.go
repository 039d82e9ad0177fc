package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/service"
)

// ClinicalHandler serves the assessment and training plan of a student.
type ClinicalHandler struct {
	clinicalService service.ClinicalService
}

func NewClinicalHandler(clinicalService service.ClinicalService) *ClinicalHandler {
	return &ClinicalHandler{clinicalService: clinicalService}
}

func (h *ClinicalHandler) GetAssessment(c *gin.Context) {
	a, err := h.clinicalService.GetAssessment(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// SaveAssessment godoc
// @Summary Save the assessment of a student
// @Description A FINALIZED assessment can no longer be changed.
// @Tags Clinical
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assessment body domain.Assessment true "Assessment"
// @Success 200 {object} domain.Assessment
// @Failure 409 {object} gin.H "Assessment already finalized"
// @Router /students/{studentId}/assessment [put]
func (h *ClinicalHandler) SaveAssessment(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var a domain.Assessment
	if err := c.ShouldBindJSON(&a); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	a.StudentID = c.Param("studentId")
	saved, err := h.clinicalService.SaveAssessment(c.Request.Context(), actor, a)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *ClinicalHandler) GetTrainingPlan(c *gin.Context) {
	p, err := h.clinicalService.GetTrainingPlan(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ClinicalHandler) SaveTrainingPlan(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var p domain.TrainingPlan
	if err := c.ShouldBindJSON(&p); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	p.StudentID = c.Param("studentId")
	saved, err := h.clinicalService.SaveTrainingPlan(c.Request.Context(), actor, p)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
