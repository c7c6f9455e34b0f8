package ledger

import (
	"strconv"

	"brix-backend/internal/middleware"
	"brix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
}

// Transfer POST /api/v1/ledger/transfer
func (h *Handlers) Transfer(c *fiber.Ctx) error {
	var body struct {
		PropertyID uint64  `json:"property_id"`
		Recipient  string  `json:"recipient"`
		Shares     *uint64 `json:"shares"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.PropertyID == 0 || body.Recipient == "" || body.Shares == nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	caller := middleware.GetPrincipal(c)
	if caller == "" {
		return response.Unauthorized(c, "Unauthorized")
	}
	// Session principal is always the sender; the service re-checks.
	if err := h.Service.Transfer(c.Context(), caller, body.PropertyID, caller, body.Recipient, *body.Shares); err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Transfer successful", fiber.Map{
		"property_id": body.PropertyID,
		"recipient":   body.Recipient,
		"shares":      *body.Shares,
	}, nil)
}

// GetBalance GET /api/v1/ledger/:id/balance/:holder
func (h *Handlers) GetBalance(c *fiber.Ctx) error {
	propertyID, err := parsePropertyID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", 400, nil)
	}
	holder := c.Params("holder")
	if holder == "" {
		return response.Error(c, "Missing holder", 400, nil)
	}
	shares, err := h.Service.BalanceOf(c.Context(), propertyID, holder)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Balance", fiber.Map{
		"property_id": propertyID,
		"holder":      holder,
		"shares":      shares,
	}, nil)
}

// GetTotalSupply GET /api/v1/ledger/:id/total-supply
func (h *Handlers) GetTotalSupply(c *fiber.Ctx) error {
	propertyID, err := parsePropertyID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", 400, nil)
	}
	supply, err := h.Service.TotalSupply(c.Context(), propertyID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Total supply", fiber.Map{
		"property_id":  propertyID,
		"total_supply": supply,
	}, nil)
}

// GetTokenInfo GET /api/v1/ledger/:id/token
func (h *Handlers) GetTokenInfo(c *fiber.Ctx) error {
	propertyID, err := parsePropertyID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", 400, nil)
	}
	info, err := h.Service.GetTokenInfo(c.Context(), propertyID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Token info", info, nil)
}

func parsePropertyID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}
