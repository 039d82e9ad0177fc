package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators the routes are built from.
type Dependencies struct {
	AuthService     service.AuthService
	StudentService  service.StudentService
	ScheduleService service.ScheduleService
	KioskService    service.KioskService
	ClinicalService service.ClinicalService
	BackupService   service.BackupService
	SettingsService service.SettingsService
	BillingService  service.BillingService
	ReportService   service.ReportService
	Events          Subscriber
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	// Location is the studio time zone.
	Location  *time.Location
	KeepAlive time.Duration
}

// EventsPath is the change stream endpoint. It is the only route that accepts
// a token in the query string.
const EventsPath = "/api/v1/events"

func SetupRoutes(router *gin.Engine, jwtSecret string, deps Dependencies) {
	authHandler := NewAuthHandler(deps.AuthService)
	studentHandler := NewStudentHandler(deps.StudentService, deps.BillingService)
	scheduleHandler := NewScheduleHandler(deps.ScheduleService, deps.Location)
	kioskHandler := NewKioskHandler(deps.KioskService)
	clinicalHandler := NewClinicalHandler(deps.ClinicalService)
	adminHandler := NewAdminHandler(deps.SettingsService, deps.BackupService, deps.ReportService)
	eventsHandler := NewEventsHandler(deps.Events, deps.KeepAlive)

	authMiddleware := AuthMiddleware(jwtSecret)
	staffOnly := RoleMiddleware(domain.RoleStaff)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := router.Group("/api/v1")
	router.GET(EventsPath, StreamAuthMiddleware(jwtSecret), eventsHandler.Stream)

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Kiosk Routes ---
		// Kiosk terminals and staff both reach these.
		kioskGroup := protected.Group("/kiosk")
		kioskGroup.Use(RoleMiddleware(domain.RoleKiosk, domain.RoleStaff))
		{
			kioskGroup.GET("/live", kioskHandler.ListLive)
			kioskGroup.POST("/check-in", kioskHandler.CheckIn)
			kioskGroup.POST("/unlock", kioskHandler.Unlock)
		}

		// --- Staff Routes ---
		staff := protected.Group("")
		staff.Use(staffOnly)
		{
			staff.POST("/auth/tokens", authHandler.IssueToken)

			students := staff.Group("/students")
			{
				students.GET("", studentHandler.ListStudents)
				students.POST("", studentHandler.CreateStudent)
				students.POST("/sync", studentHandler.SyncRoster)
				students.POST("/import", studentHandler.ImportStudents)
				students.GET("/:studentId", studentHandler.GetStudent)
				students.PUT("/:studentId", studentHandler.UpdateStudent)
				students.PUT("/:studentId/active", studentHandler.SetActive)
				students.GET("/:studentId/billing", studentHandler.ListBilling)
				students.POST("/:studentId/billing", studentHandler.RecordBilling)
				students.GET("/:studentId/assessment", clinicalHandler.GetAssessment)
				students.PUT("/:studentId/assessment", clinicalHandler.SaveAssessment)
				students.GET("/:studentId/training-plan", clinicalHandler.GetTrainingPlan)
				students.PUT("/:studentId/training-plan", clinicalHandler.SaveTrainingPlan)
			}

			staff.GET("/schedule", scheduleHandler.GetDay)

			sessions := staff.Group("/sessions")
			{
				sessions.POST("", scheduleHandler.CreateSession)
				sessions.GET("/:sessionId", scheduleHandler.GetSession)
				sessions.DELETE("/:sessionId", scheduleHandler.DeleteSession)
				sessions.GET("/:sessionId/bookings", scheduleHandler.GetRoster)
				sessions.POST("/:sessionId/bookings", scheduleHandler.BookStudent)
				sessions.GET("/:sessionId/waitlist", scheduleHandler.GetWaitlist)
			}

			bookings := staff.Group("/bookings")
			{
				bookings.POST("/:bookingId/check-in", scheduleHandler.CheckIn)
				bookings.POST("/:bookingId/absence", scheduleHandler.MarkAbsent)
				bookings.POST("/:bookingId/promote", scheduleHandler.Promote)
				bookings.DELETE("/:bookingId", scheduleHandler.RemoveBooking)
			}

			slots := staff.Group("/slots")
			{
				slots.POST("/check-in", scheduleHandler.SlotCheckIn)
				slots.POST("/absence", scheduleHandler.SlotAbsence)
				slots.POST("/reschedule", scheduleHandler.Reschedule)
			}

			staff.GET("/settings", adminHandler.GetSettings)
			staff.PUT("/settings", adminHandler.SaveSettings)
			staff.PUT("/settings/kiosk-pin", adminHandler.SetKioskPIN)

			backups := staff.Group("/backups")
			{
				backups.GET("", adminHandler.ListBackups)
				backups.POST("", adminHandler.RunBackup)
				backups.GET("/:backupId/download", adminHandler.DownloadBackup)
				backups.DELETE("/:backupId", adminHandler.DeleteBackup)
			}

			staff.GET("/logs/audit", adminHandler.AuditLogs)
			staff.GET("/logs/sync", adminHandler.SyncLogs)
			staff.GET("/export", adminHandler.Export)
		}
	}
}
