package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/promoter-service/internal/api/dto"
	"github.com/spec-kit/promoter-service/internal/auth"
	"github.com/spec-kit/promoter-service/internal/service"
	"github.com/spec-kit/promoter-service/internal/workflow"
	apperrors "github.com/spec-kit/promoter-service/pkg/util"
)

// EvaluationsHandler drives the post-event evaluation workflow over HTTP.
// Each promoter holds at most one session per event; the session endpoints
// mirror the workflow states.
type EvaluationsHandler struct {
	service *service.EvaluationService
}

// NewEvaluationsHandler constructs handler.
func NewEvaluationsHandler(evaluationService *service.EvaluationService) *EvaluationsHandler {
	return &EvaluationsHandler{service: evaluationService}
}

// ListPending GET /events/:id/evaluations/pending.
func (h *EvaluationsHandler) ListPending(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	eventID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	entries, err := h.service.ListPending(c.Context(), principal.User.ID, eventID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": guestEntryResponses(entries)})
}

// StartSession POST /events/:id/evaluations/session.
func (h *EvaluationsHandler) StartSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	eventID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	session, err := h.service.StartSession(c.Context(), principal.User.ID, eventID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// GetSession GET /events/:id/evaluations/session.
func (h *EvaluationsHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// SelectEntry POST /events/:id/evaluations/session/select.
func (h *EvaluationsHandler) SelectEntry(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	var req dto.SelectEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := session.Select(req.EntryID); err != nil {
		return workflowError(err)
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// SetAttendance POST /events/:id/evaluations/session/attendance.
func (h *EvaluationsHandler) SetAttendance(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	var req dto.SetAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := session.SetAttendance(req.Attended); err != nil {
		return workflowError(err)
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// SetDetails POST /events/:id/evaluations/session/details.
func (h *EvaluationsHandler) SetDetails(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	var req dto.SetDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := session.SetDetails(req.PurchaseSource, req.Accompaniment, req.Rating, req.Feedback); err != nil {
		return workflowError(err)
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// OverrideTier POST /events/:id/evaluations/session/tier.
func (h *EvaluationsHandler) OverrideTier(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	var req dto.OverrideTierRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := session.OverrideTier(req.Tier); err != nil {
		return workflowError(err)
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// Submit POST /events/:id/evaluations/session/submit.
func (h *EvaluationsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	eventID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	result, err := h.service.Submit(c.Context(), principal.User.ID, eventID)
	if err != nil {
		if errors.Is(err, service.ErrTierUpdateFailed) {
			return apperrors.NewDomainError("TIER_UPDATE_FAILED",
				"evaluation saved but tier update failed, retry submit",
				http.StatusInternalServerError, nil)
		}
		return workflowError(err)
	}
	return c.JSON(fiber.Map{"data": dto.SubmitResponse{
		Entry:       guestEntryResponse(result.Entry),
		Attended:    result.Attended,
		TierChanged: result.TierChanged,
		FinalTier:   result.FinalTier,
		Done:        result.Done,
		Remaining:   result.Remaining,
	}})
}

func (h *EvaluationsHandler) session(c *fiber.Ctx) (*workflow.Session, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	eventID, err := parseID(c.Params("id"))
	if err != nil {
		return nil, err
	}
	return h.service.Session(principal.User.ID, eventID)
}

// workflowError maps session state errors onto the API error vocabulary.
func workflowError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, workflow.ErrSessionDone):
		return apperrors.NewConflict("session already finished", nil)
	case errors.Is(err, workflow.ErrNoSuchEntry):
		return apperrors.NewNotFound("pending entry", nil)
	case errors.Is(err, workflow.ErrNoSelection),
		errors.Is(err, workflow.ErrAttendanceNotSet),
		errors.Is(err, workflow.ErrNotAttended):
		return apperrors.NewConflict(err.Error(), nil)
	case errors.Is(err, workflow.ErrInvalidTier),
		errors.Is(err, workflow.ErrInvalidRating),
		errors.Is(err, workflow.ErrInvalidDetail):
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return err
}

func sessionResponse(session *workflow.Session) dto.SessionResponse {
	pending := session.Pending()
	resp := dto.SessionResponse{
		EventID:   session.EventID(),
		State:     string(session.State()),
		Pending:   guestEntryResponses(pending),
		Remaining: len(pending),
	}
	if selected, ok := session.Selected(); ok {
		entry := guestEntryResponse(&selected)
		resp.Selected = &entry
		form := session.Form()
		resp.Form = &dto.FormResponse{
			Attended:       form.Attended,
			PurchaseSource: form.PurchaseSource,
			Accompaniment:  form.Accompaniment,
			Rating:         form.Rating,
			Feedback:       form.Feedback,
			SuggestedTier:  form.SuggestedTier,
			ChosenTier:     form.ChosenTier,
		}
	}
	return resp
}
