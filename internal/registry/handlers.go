package registry

import (
	"strconv"
	"time"

	"brix-backend/internal/middleware"
	"brix-backend/internal/models"
	"brix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
}

// RegisterProperty POST /api/v1/registry/register-property
func (h *Handlers) RegisterProperty(c *fiber.Ctx) error {
	var body RegisterInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	caller := middleware.GetPrincipal(c)
	if caller == "" {
		return response.Unauthorized(c, "Unauthorized")
	}
	prop, err := h.Service.RegisterProperty(c.Context(), caller, body)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.SuccessCreated(c, "Property registered", prop, nil)
}

// UpdateStatus PATCH /api/v1/registry/properties/:id/status
func (h *Handlers) UpdateStatus(c *fiber.Ctx) error {
	propertyID, err := parsePropertyID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", 400, nil)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	prop, err := h.Service.UpdateStatus(c.Context(), middleware.GetPrincipal(c), propertyID, body.Status)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Status updated", prop, nil)
}

// UpdateStats PATCH /api/v1/registry/properties/:id/stats
func (h *Handlers) UpdateStats(c *fiber.Ctx) error {
	propertyID, err := parsePropertyID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", 400, nil)
	}
	var body struct {
		TotalRaised    uint64 `json:"total_raised"`
		TotalInvestors uint64 `json:"total_investors"`
		LastPayout     *int64 `json:"last_payout"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	var lastPayout *time.Time
	if body.LastPayout != nil {
		t := time.UnixMilli(*body.LastPayout)
		lastPayout = &t
	}
	prop, err := h.Service.UpdateStats(c.Context(), middleware.GetPrincipal(c), propertyID, body.TotalRaised, body.TotalInvestors, lastPayout)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Stats updated", prop, nil)
}

// SetPaused POST /api/v1/registry/set-paused
func (h *Handlers) SetPaused(c *fiber.Ctx) error {
	var body struct {
		Paused *bool `json:"paused"`
	}
	if err := c.BodyParser(&body); err != nil || body.Paused == nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if err := h.Service.SetPaused(c.Context(), middleware.GetPrincipal(c), *body.Paused); err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Pause switch updated", fiber.Map{"paused": *body.Paused}, nil)
}

// SetTreasury POST /api/v1/registry/set-treasury
func (h *Handlers) SetTreasury(c *fiber.Ctx) error {
	var body struct {
		Treasury string `json:"treasury"`
	}
	if err := c.BodyParser(&body); err != nil || body.Treasury == "" {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if err := h.Service.SetTreasury(c.Context(), middleware.GetPrincipal(c), body.Treasury); err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Treasury updated", fiber.Map{"treasury": body.Treasury}, nil)
}

// SetOracle POST /api/v1/registry/properties/:id/oracle
func (h *Handlers) SetOracle(c *fiber.Ctx) error {
	propertyID, err := parsePropertyID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", 400, nil)
	}
	var body struct {
		Oracle string `json:"oracle"`
	}
	if err := c.BodyParser(&body); err != nil || body.Oracle == "" {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if err := h.Service.SetAuthorizedOracle(c.Context(), middleware.GetPrincipal(c), propertyID, body.Oracle); err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Oracle updated", fiber.Map{"oracle": body.Oracle}, nil)
}

// GetProperty GET /api/v1/registry/properties/:id
func (h *Handlers) GetProperty(c *fiber.Ctx) error {
	propertyID, err := parsePropertyID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", 400, nil)
	}
	prop, err := h.Service.GetProperty(c.Context(), propertyID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Property", prop, nil)
}

// GetPropertyStats GET /api/v1/registry/properties/:id/stats
func (h *Handlers) GetPropertyStats(c *fiber.Ctx) error {
	propertyID, err := parsePropertyID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", 400, nil)
	}
	prop, err := h.Service.GetProperty(c.Context(), propertyID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Property stats", fiber.Map{
		"total_raised":    prop.TotalRaised,
		"total_investors": prop.TotalInvestors,
		"last_payout":     prop.LastPayout,
	}, nil)
}

// GetPropertyMetadata GET /api/v1/registry/properties/:id/metadata
func (h *Handlers) GetPropertyMetadata(c *fiber.Ctx) error {
	propertyID, err := parsePropertyID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", 400, nil)
	}
	prop, err := h.Service.GetProperty(c.Context(), propertyID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	// The URI is stored and returned verbatim; its contents are never validated here.
	return response.Success(c, "Property metadata", fiber.Map{"metadata_uri": prop.MetadataURI}, nil)
}

// GetPropertyByContract GET /api/v1/registry/by-contract/:ref
func (h *Handlers) GetPropertyByContract(c *fiber.Ctx) error {
	ref := c.Params("ref")
	if ref == "" {
		return response.Error(c, "Missing contract ref", 400, nil)
	}
	id, err := h.Service.GetPropertyIDByContract(c.Context(), ref)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Property id", fiber.Map{"property_id": id}, nil)
}

// GetOwnerProperties GET /api/v1/registry/owner-properties
func (h *Handlers) GetOwnerProperties(c *fiber.Ctx) error {
	caller := middleware.GetPrincipal(c)
	if caller == "" {
		return response.Unauthorized(c, "Unauthorized")
	}
	props, err := h.Service.GetOwnerProperties(c.Context(), caller)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Owner properties", props, nil)
}

// GetPropertyCount GET /api/v1/registry/property-count
func (h *Handlers) GetPropertyCount(c *fiber.Ctx) error {
	n, err := h.Service.GetPropertyCount(c.Context())
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Property count", fiber.Map{"count": n}, nil)
}

// GetPlatformFee GET /api/v1/registry/platform-fee
func (h *Handlers) GetPlatformFee(c *fiber.Ctx) error {
	return response.Success(c, "Platform fee", fiber.Map{"fee_bps": models.PlatformFeeBps}, nil)
}

func parsePropertyID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}
