package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves settings, backups, logs and the data export.
type AdminHandler struct {
	settingsService service.SettingsService
	backupService   service.BackupService
	reportService   service.ReportService
}

func NewAdminHandler(settingsService service.SettingsService, backupService service.BackupService, reportService service.ReportService) *AdminHandler {
	return &AdminHandler{
		settingsService: settingsService,
		backupService:   backupService,
		reportService:   reportService,
	}
}

// --- DTOs ---

// SettingsResponse never exposes the PIN hash.
type SettingsResponse struct {
	StudioName   string `json:"studioName"`
	ContactPhone string `json:"contactPhone,omitempty"`
	AutoBackup   bool   `json:"autoBackup"`
	HasKioskPIN  bool   `json:"hasKioskPin"`
}

func mapSettingsToResponse(s *domain.Settings) SettingsResponse {
	return SettingsResponse{
		StudioName:   s.StudioName,
		ContactPhone: s.ContactPhone,
		AutoBackup:   s.AutoBackup,
		HasKioskPIN:  s.KioskExitPINHash != "",
	}
}

type SaveSettingsRequest struct {
	StudioName   string `json:"studioName" binding:"required"`
	ContactPhone string `json:"contactPhone"`
	AutoBackup   bool   `json:"autoBackup"`
}

type KioskPINRequest struct {
	PIN string `json:"pin" binding:"required"`
}

type RunBackupRequest struct {
	Type domain.BackupType `json:"type"`
}

// --- Settings ---

func (h *AdminHandler) GetSettings(c *gin.Context) {
	s, err := h.settingsService.GetSettings(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSettingsToResponse(s))
}

// SaveSettings replaces the studio settings; the kiosk PIN is kept.
func (h *AdminHandler) SaveSettings(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req SaveSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	saved, err := h.settingsService.SaveSettings(c.Request.Context(), actor, domain.Settings{
		StudioName:   req.StudioName,
		ContactPhone: req.ContactPhone,
		AutoBackup:   req.AutoBackup,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSettingsToResponse(saved))
}

func (h *AdminHandler) SetKioskPIN(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req KioskPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if err := h.settingsService.SetKioskPIN(c.Request.Context(), actor, req.PIN); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Backups ---

// RunBackup godoc
// @Summary Take a backup of the studio data
// @Description The record is returned even when the snapshot upload failed; check its status.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RunBackupRequest false "Backup type, MANUAL by default"
// @Success 201 {object} domain.BackupRecord
// @Router /backups [post]
func (h *AdminHandler) RunBackup(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req RunBackupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}
	if req.Type == "" {
		req.Type = domain.BackupManual
	}
	rec, err := h.backupService.RunBackup(c.Request.Context(), actor, req.Type)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *AdminHandler) ListBackups(c *gin.Context) {
	recs, err := h.backupService.ListBackups(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	if recs == nil {
		recs = []domain.BackupRecord{}
	}
	c.JSON(http.StatusOK, recs)
}

// DownloadBackup returns a temporary download URL for the snapshot.
func (h *AdminHandler) DownloadBackup(c *gin.Context) {
	url, err := h.backupService.DownloadURL(c.Request.Context(), c.Param("backupId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

func (h *AdminHandler) DeleteBackup(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.backupService.DeleteBackup(c.Request.Context(), actor, c.Param("backupId")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Logs and export ---

func queryLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if err != nil || n < 0 {
		return 200
	}
	return n
}

func (h *AdminHandler) AuditLogs(c *gin.Context) {
	logs, err := h.reportService.AuditLogs(c.Request.Context(), c.Query("studentId"), queryLimit(c))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *AdminHandler) SyncLogs(c *gin.Context) {
	logs, err := h.reportService.SyncLogs(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondWithError(c, err)
		return
	}
	if logs == nil {
		logs = []domain.SyncLog{}
	}
	c.JSON(http.StatusOK, logs)
}

// Export godoc
// @Summary Download all studio data as a spreadsheet
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Router /export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.reportService.ExportWorkbook(c.Request.Context(), &buf); err != nil {
		respondWithError(c, err)
		return
	}
	filename := "fisiostudio-" + time.Now().Format("20060102-1504") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
