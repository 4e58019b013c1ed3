package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/callcore/campaign-engine/internal/domain"
)

type CampaignService interface {
	CreateCampaign(ctx context.Context, campaign *domain.Campaign, scriptBody string) (*domain.Campaign, error)
	EnrollContact(ctx context.Context, campaignID string, contact *domain.Contact) (*domain.Enrollment, error)
	AddScript(ctx context.Context, campaignID, body string) (*domain.ScriptVersion, error)
}

// CampaignHandler serves the back-office campaign setup endpoints.
type CampaignHandler struct {
	service CampaignService
}

func NewCampaignHandler(service CampaignService) (*CampaignHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("campaign service is required")
	}
	return &CampaignHandler{service: service}, nil
}

func RegisterCampaignRoutes(router fiber.Router, service CampaignService) error {
	h, err := NewCampaignHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/campaigns", h.CreateCampaign)
	v1.Post("/campaigns/:id/contacts", h.EnrollContact)
	v1.Post("/campaigns/:id/script", h.AddScript)

	return nil
}

type createCampaignRequest struct {
	AreaID    string    `json:"areaId"`
	Name      string    `json:"name"`
	DateStart time.Time `json:"dateStart"`
	DateEnd   time.Time `json:"dateEnd"`
	Script    string    `json:"script,omitempty"`
}

type enrollContactRequest struct {
	Phone       string `json:"phone"`
	Name        string `json:"name"`
	Institution string `json:"institution,omitempty"`
}

type enrollContactResponse struct {
	EnrollmentID string `json:"enrollmentId"`
	CampaignID   string `json:"campaignId"`
	ContactID    string `json:"contactId"`
	Status       string `json:"status"`
}

type addScriptRequest struct {
	Body string `json:"body"`
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req createCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	campaign, err := h.service.CreateCampaign(c.Context(), &domain.Campaign{
		AreaID:    req.AreaID,
		Name:      req.Name,
		DateStart: req.DateStart,
		DateEnd:   req.DateEnd,
	}, req.Script)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(campaignResponse{
		ID:        campaign.ID,
		AreaID:    campaign.AreaID,
		Name:      campaign.Name,
		DateStart: campaign.DateStart,
		DateEnd:   campaign.DateEnd,
	})
}

func (h *CampaignHandler) EnrollContact(c *fiber.Ctx) error {
	var req enrollContactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	enrollment, err := h.service.EnrollContact(c.Context(), c.Params("id"), &domain.Contact{
		Phone:       req.Phone,
		Name:        req.Name,
		Institution: req.Institution,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(enrollContactResponse{
		EnrollmentID: enrollment.ID,
		CampaignID:   enrollment.CampaignID,
		ContactID:    enrollment.ContactID,
		Status:       enrollment.Status.String(),
	})
}

func (h *CampaignHandler) AddScript(c *fiber.Ctx) error {
	var req addScriptRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	script, err := h.service.AddScript(c.Context(), c.Params("id"), req.Body)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(scriptResponse{
		Version: script.Version,
		Body:    script.Body,
	})
}
