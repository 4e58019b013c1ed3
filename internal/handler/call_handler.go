package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/callcore/campaign-engine/internal/domain"
	"github.com/callcore/campaign-engine/internal/service"
)

type AssignmentService interface {
	RequestAssignment(ctx context.Context, phone, pin, areaID string) (*service.Assignment, error)
}

type OutcomeService interface {
	RecordOutcome(ctx context.Context, req service.OutcomeRequest) (*service.OutcomeResult, error)
}

type ProgressService interface {
	GetProgress(ctx context.Context, phone, pin, areaID string) (*domain.Progress, error)
	CallLedger(ctx context.Context, phone, pin, areaID string, limit int) ([]domain.LedgerEntry, error)
}

// CallHandler serves the caller-facing operations: assignment, outcome,
// progress and the call-time ledger.
type CallHandler struct {
	assignments AssignmentService
	outcomes    OutcomeService
	progress    ProgressService
}

func NewCallHandler(assignments AssignmentService, outcomes OutcomeService, progress ProgressService) (*CallHandler, error) {
	if assignments == nil {
		return nil, fmt.Errorf("assignment service is required")
	}
	if outcomes == nil {
		return nil, fmt.Errorf("outcome service is required")
	}
	if progress == nil {
		return nil, fmt.Errorf("progress service is required")
	}
	return &CallHandler{
		assignments: assignments,
		outcomes:    outcomes,
		progress:    progress,
	}, nil
}

func RegisterCallRoutes(router fiber.Router, assignments AssignmentService, outcomes OutcomeService, progress ProgressService) error {
	h, err := NewCallHandler(assignments, outcomes, progress)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/calls/assignment", h.RequestAssignment)
	v1.Post("/calls/outcome", h.RecordOutcome)
	v1.Get("/calls/progress", h.GetProgress)
	v1.Get("/calls/ledger", h.GetLedger)

	return nil
}

type credentials struct {
	Phone  string `json:"phone"`
	PIN    string `json:"pin"`
	AreaID string `json:"areaId"`
}

type assignmentRequest struct {
	credentials
}

type outcomeRequest struct {
	credentials
	ContactID      string `json:"contactId"`
	Satisfaction   int    `json:"satisfaction"`
	Comment        string `json:"comment"`
	DurationMillis int64  `json:"durationMillis"`
}

type contactResponse struct {
	ID          string `json:"id"`
	Phone       string `json:"phone"`
	Name        string `json:"name"`
	Institution string `json:"institution,omitempty"`
}

type scriptResponse struct {
	Version int    `json:"version"`
	Body    string `json:"body"`
}

type campaignResponse struct {
	ID        string    `json:"id"`
	AreaID    string    `json:"areaId"`
	Name      string    `json:"name"`
	DateStart time.Time `json:"dateStart"`
	DateEnd   time.Time `json:"dateEnd"`
}

type assignmentResponse struct {
	AlreadyInCall bool             `json:"alreadyInCall"`
	Campaign      campaignResponse `json:"campaign"`
	Contact       contactResponse  `json:"contact"`
	Script        scriptResponse   `json:"script"`
}

type outcomeResponse struct {
	Status string `json:"status"`
	OptOut bool   `json:"optOut"`
}

type progressResponse struct {
	CampaignID string `json:"campaignId"`
	Answered   int64  `json:"answered"`
	Total      int64  `json:"total"`
}

type ledgerEntryResponse struct {
	ContactID      string    `json:"contactId"`
	CampaignID     string    `json:"campaignId"`
	DurationMillis int64     `json:"durationMillis"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (h *CallHandler) RequestAssignment(c *fiber.Ctx) error {
	var req assignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.assignments.RequestAssignment(c.Context(), req.Phone, req.PIN, req.AreaID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toAssignmentResponse(assignment))
}

func (h *CallHandler) RecordOutcome(c *fiber.Ctx) error {
	var req outcomeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.outcomes.RecordOutcome(c.Context(), service.OutcomeRequest{
		Phone:          req.Phone,
		PIN:            req.PIN,
		AreaID:         req.AreaID,
		ContactID:      req.ContactID,
		Satisfaction:   req.Satisfaction,
		Comment:        req.Comment,
		DurationMillis: req.DurationMillis,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(outcomeResponse{
		Status: result.Status.String(),
		OptOut: result.OptOut,
	})
}

func (h *CallHandler) GetProgress(c *fiber.Ctx) error {
	phone, pin, areaID := queryCredentials(c)

	progress, err := h.progress.GetProgress(c.Context(), phone, pin, areaID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(progressResponse{
		CampaignID: progress.CampaignID,
		Answered:   progress.Answered,
		Total:      progress.Total,
	})
}

func (h *CallHandler) GetLedger(c *fiber.Ctx) error {
	phone, pin, areaID := queryCredentials(c)
	limit := c.QueryInt("limit", 0)

	entries, err := h.progress.CallLedger(c.Context(), phone, pin, areaID, limit)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]ledgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, ledgerEntryResponse{
			ContactID:      entry.ContactID,
			CampaignID:     entry.CampaignID,
			DurationMillis: entry.DurationMillis,
			CreatedAt:      entry.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": data})
}

func queryCredentials(c *fiber.Ctx) (phone, pin, areaID string) {
	return c.Query("phone"), c.Query("pin"), c.Query("areaId")
}

func toAssignmentResponse(assignment *service.Assignment) assignmentResponse {
	resp := assignmentResponse{
		AlreadyInCall: assignment.AlreadyInCall,
	}
	if assignment.Campaign != nil {
		resp.Campaign = campaignResponse{
			ID:        assignment.Campaign.ID,
			AreaID:    assignment.Campaign.AreaID,
			Name:      assignment.Campaign.Name,
			DateStart: assignment.Campaign.DateStart,
			DateEnd:   assignment.Campaign.DateEnd,
		}
	}
	if assignment.Contact != nil {
		resp.Contact = contactResponse{
			ID:          assignment.Contact.ID,
			Phone:       assignment.Contact.Phone,
			Name:        assignment.Contact.Name,
			Institution: assignment.Contact.Institution,
		}
	}
	if assignment.Script != nil {
		resp.Script = scriptResponse{
			Version: assignment.Script.Version,
			Body:    assignment.Script.Body,
		}
	}
	return resp
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredential):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNoClientAvailable),
		errors.Is(err, domain.ErrNoCurrentCampaign),
		errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotInCall),
		errors.Is(err, domain.ErrCallerMismatch),
		errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
