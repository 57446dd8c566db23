package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"physiotrack/practice-app/internal/domain"
	"physiotrack/practice-app/internal/service"
)

// SetupRoutes wires every handler onto the router.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	exerciseService service.ExerciseService,
	therapistService service.TherapistService,
	patientService service.PatientService,
) {
	authHandler := NewAuthHandler(authService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	therapistHandler := NewTherapistHandler(therapistService)
	patientHandler := NewPatientHandler(patientService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Exercise library (therapist-owned) ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", RoleMiddleware(domain.RoleTherapist, domain.RoleAdmin), exerciseHandler.CreateExercise)
			exerciseGroup.GET("", RoleMiddleware(domain.RoleTherapist, domain.RoleAdmin), exerciseHandler.GetTherapistExercises)
			exerciseGroup.PUT("/:exerciseId", RoleMiddleware(domain.RoleTherapist, domain.RoleAdmin), exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:exerciseId", RoleMiddleware(domain.RoleTherapist, domain.RoleAdmin), exerciseHandler.DeleteExercise)

			exerciseGroup.POST("/:exerciseId/video/upload-url", RoleMiddleware(domain.RoleTherapist, domain.RoleAdmin), exerciseHandler.RequestVideoUploadURL)
			exerciseGroup.POST("/:exerciseId/video/confirm", RoleMiddleware(domain.RoleTherapist, domain.RoleAdmin), exerciseHandler.ConfirmVideoUpload)
			// Patients stream demo videos for their assigned exercises.
			exerciseGroup.GET("/:exerciseId/video", exerciseHandler.GetVideoDownloadURL)
		}

		// --- Therapist surface ---
		therapistGroup := protected.Group("/therapist")
		therapistGroup.Use(RoleMiddleware(domain.RoleTherapist, domain.RoleAdmin))
		{
			therapistGroup.POST("/patients", therapistHandler.AddPatientByEmail)
			therapistGroup.GET("/patients", therapistHandler.GetManagedPatients)
			therapistGroup.GET("/patients/summaries", therapistHandler.GetPatientSummaries)

			therapistGroup.POST("/plans", therapistHandler.CreateTreatmentPlan)
			therapistGroup.GET("/plans", therapistHandler.GetTreatmentPlans)

			therapistGroup.POST("/assignments", therapistHandler.CreateAssignment)
			therapistGroup.PATCH("/assignments/:assignmentId", therapistHandler.UpdateAssignment)
			therapistGroup.DELETE("/assignments/:assignmentId", therapistHandler.DeactivateAssignment)
			therapistGroup.GET("/patients/:patientId/assignments", therapistHandler.GetPatientAssignments)

			therapistGroup.POST("/patients/:patientId/sessions", therapistHandler.CreateTreatmentSession)
			therapistGroup.GET("/patients/:patientId/sessions", therapistHandler.GetTreatmentSessions)
			therapistGroup.PATCH("/sessions/:sessionId", therapistHandler.UpdateTreatmentSession)
		}

		// --- Patient surface ---
		patientGroup := protected.Group("/patient")
		patientGroup.Use(RoleMiddleware(domain.RolePatient, domain.RoleAdmin))
		{
			patientGroup.GET("/assignments", patientHandler.MyAssignments)
			patientGroup.POST("/assignments/:assignmentId/completions", patientHandler.RecordCompletion)
			patientGroup.GET("/assignments/:assignmentId/completions", patientHandler.ListCompletions)

			patientGroup.POST("/check-ins", patientHandler.CheckIn)
			patientGroup.GET("/check-ins/streak", patientHandler.CheckInStreak)
		}
	}
}
