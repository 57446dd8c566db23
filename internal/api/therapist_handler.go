package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"physiotrack/practice-app/internal/domain"
	"physiotrack/practice-app/internal/schedule"
	"physiotrack/practice-app/internal/service"
)

// TherapistHandler holds the therapist service dependency.
type TherapistHandler struct {
	therapistService service.TherapistService
}

// NewTherapistHandler creates a new TherapistHandler.
func NewTherapistHandler(therapistService service.TherapistService) *TherapistHandler {
	return &TherapistHandler{therapistService: therapistService}
}

// --- Request/Response Structs ---

type AddPatientRequest struct {
	PatientEmail string `json:"patientEmail" binding:"required,email"`
}

type TreatmentPlanRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	ExerciseIDs []string `json:"exerciseIds" binding:"required,min=1"`
}

// CreateAssignmentRequest prescribes recurring homework. Dates are
// date-only in "2006-01-02" form; exactly one of planId or exerciseIds
// must be set.
type CreateAssignmentRequest struct {
	PatientID   string   `json:"patientId" binding:"required"`
	StartDate   string   `json:"startDate" binding:"required"`
	EndDate     string   `json:"endDate" binding:"required"`
	ActiveDays  []string `json:"activeDays" binding:"required,min=1"`
	PlanID      string   `json:"planId"`
	ExerciseIDs []string `json:"exerciseIds"`
	Notes       string   `json:"notes"`
}

// UpdateAssignmentRequest patches an assignment; absent fields stay
// unchanged. The plan reference is not editable.
type UpdateAssignmentRequest struct {
	StartDate  *string  `json:"startDate"`
	EndDate    *string  `json:"endDate"`
	ActiveDays []string `json:"activeDays"`
	Notes      *string  `json:"notes"`
}

type CreateSessionRequest struct {
	Status domain.SessionStatus `json:"status" binding:"required,oneof=draft finalized"`
	Notes  string               `json:"notes"`
}

type UpdateSessionRequest struct {
	Status *domain.SessionStatus `json:"status" binding:"omitempty,oneof=draft finalized"`
	Notes  *string               `json:"notes"`
}

const dateLayout = "2006-01-02"

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

// --- Patient roster ---

// AddPatientByEmail links an existing patient account to the caller.
func (h *TherapistHandler) AddPatientByEmail(c *gin.Context) {
	var req AddPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	patient, err := h.therapistService.AddPatientByEmail(c.Request.Context(), actor.ID, req.PatientEmail)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(patient))
}

// GetManagedPatients lists the caller's patient roster.
func (h *TherapistHandler) GetManagedPatients(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	patients, err := h.therapistService.GetManagedPatients(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if patients == nil {
		c.JSON(http.StatusOK, []UserResponse{})
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(patients))
}

// GetPatientSummaries serves the dashboard rows, one per managed patient.
func (h *TherapistHandler) GetPatientSummaries(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	summaries, err := h.therapistService.GetPatientSummaries(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if summaries == nil {
		summaries = []service.PatientSummary{}
	}
	c.JSON(http.StatusOK, summaries)
}

// --- Treatment plans ---

// CreateTreatmentPlan stores a named exercise bundle.
func (h *TherapistHandler) CreateTreatmentPlan(c *gin.Context) {
	var req TreatmentPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	exerciseIDs, err := parseObjectIDs(req.ExerciseIDs)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	plan := &domain.TreatmentPlan{
		TherapistID: actor.ID,
		Name:        req.Name,
		Description: req.Description,
		ExerciseIDs: exerciseIDs,
	}
	created, err := h.therapistService.CreateTreatmentPlan(c.Request.Context(), plan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetTreatmentPlans lists the caller's plans.
func (h *TherapistHandler) GetTreatmentPlans(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	plans, err := h.therapistService.GetTreatmentPlans(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if plans == nil {
		plans = []domain.TreatmentPlan{}
	}
	c.JSON(http.StatusOK, plans)
}

// --- Assignments ---

// CreateAssignment prescribes a recurring assignment to a patient.
func (h *TherapistHandler) CreateAssignment(c *gin.Context) {
	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	patientID, err := primitive.ObjectIDFromHex(req.PatientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid patient ID format")
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	activeDays, err := schedule.ParseWeekdaySet(req.ActiveDays)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	input := service.AssignmentInput{
		PatientID:  patientID,
		StartDate:  startDate,
		EndDate:    endDate,
		ActiveDays: activeDays,
		Notes:      req.Notes,
	}
	if req.PlanID != "" {
		planID, err := primitive.ObjectIDFromHex(req.PlanID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid plan ID format")
			return
		}
		input.PlanID = &planID
	}
	if len(req.ExerciseIDs) > 0 {
		input.ExerciseIDs, err = parseObjectIDs(req.ExerciseIDs)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	created, err := h.therapistService.CreateAssignment(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateAssignment edits dates, active days or notes.
func (h *TherapistHandler) UpdateAssignment(c *gin.Context) {
	assignmentID, err := primitive.ObjectIDFromHex(c.Param("assignmentId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid assignment ID format")
		return
	}
	var req UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	var patch service.AssignmentPatch
	if req.StartDate != nil {
		startDate, err := parseDate(*req.StartDate)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		patch.StartDate = &startDate
	}
	if req.EndDate != nil {
		endDate, err := parseDate(*req.EndDate)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		patch.EndDate = &endDate
	}
	if len(req.ActiveDays) > 0 {
		patch.ActiveDays, err = schedule.ParseWeekdaySet(req.ActiveDays)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	patch.Notes = req.Notes

	updated, err := h.therapistService.UpdateAssignment(c.Request.Context(), actor, assignmentID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeactivateAssignment soft-deletes an assignment.
func (h *TherapistHandler) DeactivateAssignment(c *gin.Context) {
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

	if err := h.therapistService.DeactivateAssignment(c.Request.Context(), actor, assignmentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPatientAssignments returns enriched assignment views for one patient.
func (h *TherapistHandler) GetPatientAssignments(c *gin.Context) {
	patientID, err := primitive.ObjectIDFromHex(c.Param("patientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid patient ID format")
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	details, err := h.therapistService.GetPatientAssignments(c.Request.Context(), actor, patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	if details == nil {
		details = []service.AssignmentDetails{}
	}
	c.JSON(http.StatusOK, details)
}

// --- Treatment sessions ---

// CreateTreatmentSession records a clinical session note for a patient.
func (h *TherapistHandler) CreateTreatmentSession(c *gin.Context) {
	patientID, err := primitive.ObjectIDFromHex(c.Param("patientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid patient ID format")
		return
	}
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	session, err := h.therapistService.CreateTreatmentSession(c.Request.Context(), actor, patientID, req.Status, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GetTreatmentSessions lists a patient's session records.
func (h *TherapistHandler) GetTreatmentSessions(c *gin.Context) {
	patientID, err := primitive.ObjectIDFromHex(c.Param("patientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid patient ID format")
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	sessions, err := h.therapistService.GetTreatmentSessions(c.Request.Context(), actor, patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []domain.TreatmentSession{}
	}
	c.JSON(http.StatusOK, sessions)
}

// UpdateTreatmentSession edits a session under the ownership and time-lock
// guards.
func (h *TherapistHandler) UpdateTreatmentSession(c *gin.Context) {
	sessionID, err := primitive.ObjectIDFromHex(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format")
		return
	}
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	patch := service.SessionPatch{Status: req.Status, Notes: req.Notes}
	updated, err := h.therapistService.UpdateTreatmentSession(c.Request.Context(), actor, sessionID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// parseObjectIDs converts hex strings into ObjectIDs, failing on the first
// malformed entry.
func parseObjectIDs(raw []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, fmt.Errorf("invalid object ID %q", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
