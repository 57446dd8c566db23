package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"physiotrack/practice-app/internal/domain"
	"physiotrack/practice-app/internal/service"
)

// PatientHandler holds the patient service dependency.
type PatientHandler struct {
	patientService service.PatientService
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(patientService service.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

// --- Request Structs ---

// RecordCompletionRequest marks a training day done. An empty date means
// today; exerciseId optionally tags which exercise was trained.
type RecordCompletionRequest struct {
	CompletedDate string `json:"completedDate"`
	ExerciseID    string `json:"exerciseId"`
}

type CheckInRequest struct {
	Mood int    `json:"mood" binding:"omitempty,min=1,max=5"`
	Note string `json:"note"`
}

// --- Handler Methods ---

// MyAssignments returns the caller's enriched assignment views.
func (h *PatientHandler) MyAssignments(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	details, err := h.patientService.MyAssignments(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if details == nil {
		details = []service.AssignmentDetails{}
	}
	c.JSON(http.StatusOK, details)
}

// RecordCompletion appends a training day to an assignment's ledger.
// Returns 201 on the first record for the day and 409 on a repeat.
func (h *PatientHandler) RecordCompletion(c *gin.Context) {
	assignmentID, err := primitive.ObjectIDFromHex(c.Param("assignmentId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid assignment ID format")
		return
	}
	var req RecordCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	var input service.CompletionInput
	if req.CompletedDate != "" {
		input.Date, err = parseDate(req.CompletedDate)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.ExerciseID != "" {
		exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
			return
		}
		input.ExerciseID = &exerciseID
	}

	record, err := h.patientService.RecordCompletion(c.Request.Context(), actor, assignmentID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// ListCompletions returns an assignment's completion ledger.
func (h *PatientHandler) ListCompletions(c *gin.Context) {
	assignmentID, err := primitive.ObjectIDFromHex(c.Param("assignmentId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid assignment ID format")
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	records, err := h.patientService.ListCompletions(c.Request.Context(), actor, assignmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []domain.CompletionRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// CheckIn stores today's diary entry for the caller.
func (h *PatientHandler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	entry, err := h.patientService.CheckIn(c.Request.Context(), actor.ID, req.Mood, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// CheckInStreak returns the caller's consecutive check-in day count.
func (h *PatientHandler) CheckInStreak(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	streak, err := h.patientService.CheckInStreak(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streak": streak})
}
