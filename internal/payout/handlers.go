package payout

import (
	"strconv"

	"brix-backend/internal/middleware"
	"brix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
}

// Distribute POST /api/v1/payouts/distribute
func (h *Handlers) Distribute(c *fiber.Ctx) error {
	var body struct {
		PropertyID  uint64  `json:"property_id"`
		TotalAmount *uint64 `json:"total_amount"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.PropertyID == 0 || body.TotalAmount == nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	caller := middleware.GetPrincipal(c)
	if caller == "" {
		return response.Unauthorized(c, "Unauthorized")
	}
	roundID, err := h.Service.Distribute(c.Context(), caller, body.PropertyID, *body.TotalAmount)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.SuccessCreated(c, "Payout round created", fiber.Map{
		"property_id": body.PropertyID,
		"round_id":    roundID,
	}, nil)
}

// Claim POST /api/v1/payouts/claim
func (h *Handlers) Claim(c *fiber.Ctx) error {
	var body struct {
		PropertyID uint64 `json:"property_id"`
		RoundID    uint64 `json:"round_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.PropertyID == 0 || body.RoundID == 0 {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	caller := middleware.GetPrincipal(c)
	if caller == "" {
		return response.Unauthorized(c, "Unauthorized")
	}
	amount, err := h.Service.ClaimPayout(c.Context(), caller, body.PropertyID, body.RoundID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Payout claimed", fiber.Map{
		"property_id": body.PropertyID,
		"round_id":    body.RoundID,
		"amount_paid": amount,
	}, nil)
}

// GetCurrentRound GET /api/v1/payouts/:id/current-round
func (h *Handlers) GetCurrentRound(c *fiber.Ctx) error {
	propertyID, err := parsePropertyID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", 400, nil)
	}
	round, err := h.Service.GetCurrentRound(c.Context(), propertyID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Current round", fiber.Map{
		"property_id":   propertyID,
		"current_round": round,
	}, nil)
}

// GetPayoutRound GET /api/v1/payouts/:id/rounds/:round
func (h *Handlers) GetPayoutRound(c *fiber.Ctx) error {
	propertyID, roundID, err := parseRoundPath(c)
	if err != nil {
		return response.Error(c, "Invalid property or round id", 400, nil)
	}
	round, err := h.Service.GetPayoutRound(c.Context(), propertyID, roundID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Payout round", round, nil)
}

// GetClaimable GET /api/v1/payouts/:id/rounds/:round/claimable?holder=X
// holder defaults to the session principal.
func (h *Handlers) GetClaimable(c *fiber.Ctx) error {
	propertyID, roundID, err := parseRoundPath(c)
	if err != nil {
		return response.Error(c, "Invalid property or round id", 400, nil)
	}
	holder := c.Query("holder")
	if holder == "" {
		holder = middleware.GetPrincipal(c)
	}
	if holder == "" {
		return response.Error(c, "Missing holder", 400, nil)
	}
	claimable, err := h.Service.CalculateClaimable(c.Context(), propertyID, roundID, holder)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Claimable", claimable, nil)
}

// HasClaimed GET /api/v1/payouts/:id/rounds/:round/has-claimed/:holder
func (h *Handlers) HasClaimed(c *fiber.Ctx) error {
	propertyID, roundID, err := parseRoundPath(c)
	if err != nil {
		return response.Error(c, "Invalid property or round id", 400, nil)
	}
	holder := c.Params("holder")
	if holder == "" {
		return response.Error(c, "Missing holder", 400, nil)
	}
	claimed, err := h.Service.HasClaimed(c.Context(), propertyID, roundID, holder)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Claim status", fiber.Map{
		"property_id": propertyID,
		"round_id":    roundID,
		"holder":      holder,
		"claimed":     claimed,
	}, nil)
}

// GetAccountBalance GET /api/v1/payouts/account-balance — the session
// principal's settlement balance.
func (h *Handlers) GetAccountBalance(c *fiber.Ctx) error {
	caller := middleware.GetPrincipal(c)
	if caller == "" {
		return response.Unauthorized(c, "Unauthorized")
	}
	balance, err := h.Service.GetAccountBalance(c.Context(), caller)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Account balance", fiber.Map{
		"principal": caller,
		"balance":   balance,
	}, nil)
}

func parsePropertyID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}

func parseRoundPath(c *fiber.Ctx) (uint64, uint64, error) {
	propertyID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	roundID, err := strconv.ParseUint(c.Params("round"), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return propertyID, roundID, nil
}
