package sale

import (
	"strconv"

	"brix-backend/internal/middleware"
	"brix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

type Handlers struct {
	Service       *Service
	StripeCreator PaymentIntentCreator
}

// RealStripeCreator uses the Stripe Go SDK to create PaymentIntents.
type RealStripeCreator struct {
	SecretKey string
}

func (r *RealStripeCreator) Create(amountCents int64, currency string, metadata map[string]string) (*PaymentIntentResult, error) {
	if r.SecretKey == "" {
		return nil, fiber.NewError(501, "Stripe integration pending")
	}
	stripe.Key = r.SecretKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &PaymentIntentResult{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// Purchase POST /api/v1/sale/purchase — direct mint for rails where payment
// settles atomically with the call.
func (h *Handlers) Purchase(c *fiber.Ctx) error {
	var body struct {
		PropertyID uint64  `json:"property_id"`
		Shares     *uint64 `json:"shares"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.PropertyID == 0 || body.Shares == nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	buyer := middleware.GetPrincipal(c)
	if buyer == "" {
		return response.Unauthorized(c, "Unauthorized")
	}
	granted, err := h.Service.Purchase(c.Context(), buyer, body.PropertyID, *body.Shares)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Purchase successful", fiber.Map{
		"property_id":    body.PropertyID,
		"shares_granted": granted,
	}, nil)
}

// Reserve POST /api/v1/sale/reserve — creates a share hold plus PaymentIntent.
func (h *Handlers) Reserve(c *fiber.Ctx) error {
	var body struct {
		PropertyID uint64  `json:"property_id"`
		Shares     *uint64 `json:"shares"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.PropertyID == 0 || body.Shares == nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	buyer := middleware.GetPrincipal(c)
	if buyer == "" {
		return response.Unauthorized(c, "Unauthorized")
	}
	if h.StripeCreator == nil {
		return response.Error(c, "Stripe not configured", 500, nil)
	}
	res, clientSecret, err := h.Service.Reserve(c.Context(), buyer, body.PropertyID, *body.Shares, h.StripeCreator)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.SuccessCreated(c, "Reservation created", fiber.Map{
		"reservation_id":    res.ReservationID,
		"payment_intent_id": res.PaymentIntentID,
		"client_secret":     clientSecret,
		"amount_cents":      res.AmountCents,
		"expires_at":        res.ExpiresAt,
	}, nil)
}

// SetSaleActive POST /api/v1/sale/properties/:id/sale-active
func (h *Handlers) SetSaleActive(c *fiber.Ctx) error {
	propertyID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.Error(c, "Invalid property id", 400, nil)
	}
	var body struct {
		Active *bool `json:"active"`
	}
	if err := c.BodyParser(&body); err != nil || body.Active == nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if err := h.Service.SetSaleActive(c.Context(), middleware.GetPrincipal(c), propertyID, *body.Active); err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Sale state updated", fiber.Map{"sale_active": *body.Active}, nil)
}

// GetReservation GET /api/v1/sale/reservations/:reservation_id
func (h *Handlers) GetReservation(c *fiber.Ctx) error {
	id := c.Params("reservation_id")
	if id == "" {
		return response.Error(c, "Missing reservation id", 400, nil)
	}
	res, err := h.Service.GetReservation(c.Context(), id)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Reservation", res, nil)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
