package sale

import (
	"context"
	"encoding/json"
	"time"

	"brix-backend/internal/ledger"
	"brix-backend/internal/models"
	"brix-backend/internal/pkg/lederr"
	"brix-backend/internal/pkg/u64"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	DB             *gorm.DB
	ReservationTTL time.Duration
}

// PaymentIntentCreator abstracts Stripe PaymentIntent creation for testability.
type PaymentIntentCreator interface {
	Create(amountCents int64, currency string, metadata map[string]string) (*PaymentIntentResult, error)
}

type PaymentIntentResult struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Purchase mints shares directly. Payment is a precondition enforced by the
// calling rail (atomic-with-call); rails with asynchronous settlement use
// Reserve/ConfirmReservation instead. Gate order: paused, sale-active,
// amount, remaining supply.
func (s *Service) Purchase(ctx context.Context, buyer string, propertyID uint64, numShares uint64) (uint64, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prop, err := s.gatePurchase(tx, propertyID, numShares)
		if err != nil {
			return err
		}
		return s.issueShares(tx, prop, buyer, numShares)
	})
	if err != nil {
		return 0, err
	}
	return numShares, nil
}

// SetSaleActive opens or closes fundraising (owner only).
func (s *Service) SetSaleActive(ctx context.Context, caller string, propertyID uint64, value bool) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prop, err := loadProperty(tx, propertyID)
		if err != nil {
			return err
		}
		if prop.Owner != caller {
			return lederr.ErrNotAuthorized
		}
		prop.SaleActive = value
		return tx.Save(prop).Error
	})
}

// Reserve is phase one of the asynchronous purchase rail: it validates the
// same gates as Purchase, holds the shares against remaining supply and
// creates a PaymentIntent carrying the fulfilment metadata. The hold expires
// if the payment never confirms.
func (s *Service) Reserve(ctx context.Context, buyer string, propertyID uint64, numShares uint64, creator PaymentIntentCreator) (*models.ShareReservation, string, error) {
	if creator == nil {
		return nil, "", lederr.ErrInvalidData
	}

	var res models.ShareReservation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prop, err := s.gatePurchase(tx, propertyID, numShares)
		if err != nil {
			return err
		}
		amount, err := u64.Mul(prop.SharePrice, numShares)
		if err != nil {
			return err
		}
		res = models.ShareReservation{
			PropertyID:  propertyID,
			Buyer:       buyer,
			Shares:      numShares,
			AmountCents: amount,
			Status:      models.ReservationPending,
			ExpiresAt:   time.Now().Add(s.reservationTTL()),
		}
		return tx.Create(&res).Error
	})
	if err != nil {
		return nil, "", err
	}

	pi, err := creator.Create(int64(res.AmountCents), "usd", map[string]string{
		"reservation_id": res.ReservationID.String(),
		"property_id":    formatUint(propertyID),
		"buyer":          buyer,
		"shares":         formatUint(numShares),
	})
	if err != nil {
		// Release the hold; the payment was never offered to the buyer.
		if delErr := s.DB.WithContext(ctx).Delete(&models.ShareReservation{}, "reservation_id = ?", res.ReservationID).Error; delErr != nil {
			log.Error().Err(delErr).Str("reservation_id", res.ReservationID.String()).Msg("Failed to release reservation after payment intent error")
		}
		return nil, "", err
	}

	res.PaymentIntentID = &pi.ID
	if err := s.DB.WithContext(ctx).Model(&models.ShareReservation{}).
		Where("reservation_id = ?", res.ReservationID).
		Update("payment_intent_id", pi.ID).Error; err != nil {
		return nil, "", err
	}
	return &res, pi.ClientSecret, nil
}

// ConfirmReservation is phase two: called by the payment webhook once funds
// are received. Idempotent per payment intent. A reservation whose hold
// already expired is only honored if supply is still available.
func (s *Service) ConfirmReservation(ctx context.Context, paymentIntentID string, rawEvent []byte) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res models.ShareReservation
		if err := tx.Where("payment_intent_id = ?", paymentIntentID).First(&res).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return lederr.ErrReservationNotFound
			}
			return err
		}
		if res.Status == models.ReservationConfirmed {
			return nil // already processed
		}

		prop, err := loadProperty(tx, res.PropertyID)
		if err != nil {
			return err
		}

		expired := res.Status == models.ReservationExpired || time.Now().After(res.ExpiresAt)
		if expired {
			// The hold was released; payment landed late. Honor it only if
			// supply still allows, otherwise the rail must refund.
			sold, err := u64.Add(prop.SharesSold, res.Shares)
			if err != nil || sold > prop.TotalShares {
				res.Status = models.ReservationExpired
				if saveErr := tx.Save(&res).Error; saveErr != nil {
					return saveErr
				}
				log.Warn().Str("payment_intent_id", paymentIntentID).Uint64("property_id", res.PropertyID).Msg("Late payment for expired reservation; supply exhausted, refund required")
				return lederr.ErrInsufficientShares
			}
		}

		if err := s.issueShares(tx, prop, res.Buyer, res.Shares); err != nil {
			return err
		}

		res.Status = models.ReservationConfirmed
		if err := tx.Save(&res).Error; err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"reservation_id":    res.ReservationID.String(),
			"payment_intent_id": paymentIntentID,
			"raw_event":         json.RawMessage(rawEvent),
		})
		return tx.Create(&models.LedgerTransaction{
			Type:        models.TxMint,
			PropertyID:  res.PropertyID,
			ToPrincipal: &res.Buyer,
			Amount:      res.Shares,
			EventData:   datatypes.JSON(payload),
		}).Error
	})
}

// GetReservation returns one reservation by id string.
func (s *Service) GetReservation(ctx context.Context, reservationID string) (*models.ShareReservation, error) {
	var res models.ShareReservation
	if err := s.DB.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&res).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, lederr.ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// gatePurchase enforces the purchase preconditions in spec order and returns
// the property row. Expired pending holds are released first so they stop
// counting against supply.
func (s *Service) gatePurchase(tx *gorm.DB, propertyID uint64, numShares uint64) (*models.Property, error) {
	platform, err := loadPlatform(tx)
	if err != nil {
		return nil, err
	}
	prop, err := loadProperty(tx, propertyID)
	if err != nil {
		return nil, err
	}
	if platform.Paused || prop.Paused() {
		return nil, lederr.ErrPaused
	}
	if !prop.SaleActive {
		return nil, lederr.ErrSaleNotActive
	}
	if numShares == 0 || numShares < prop.MinPurchase {
		return nil, lederr.ErrInvalidAmount
	}

	if err := tx.Model(&models.ShareReservation{}).
		Where("property_id = ? AND status = ? AND expires_at <= ?", propertyID, models.ReservationPending, time.Now()).
		Update("status", models.ReservationExpired).Error; err != nil {
		return nil, err
	}

	var pending int64
	row := tx.Model(&models.ShareReservation{}).
		Where("property_id = ? AND status = ?", propertyID, models.ReservationPending).
		Select("COALESCE(SUM(shares), 0)").
		Row()
	if err := row.Scan(&pending); err != nil {
		return nil, err
	}

	committed, err := u64.Add(prop.SharesSold, uint64(pending))
	if err != nil {
		return nil, err
	}
	total, err := u64.Add(committed, numShares)
	if err != nil {
		return nil, err
	}
	if total > prop.TotalShares {
		return nil, lederr.ErrInsufficientShares
	}
	return prop, nil
}

// issueShares mints to the buyer and advances shares_sold in the same
// transaction, flagging the property sold out at the cap.
func (s *Service) issueShares(tx *gorm.DB, prop *models.Property, buyer string, numShares uint64) error {
	if err := ledger.Mint(tx, prop.PropertyID, buyer, numShares); err != nil {
		return err
	}
	sold, err := u64.Add(prop.SharesSold, numShares)
	if err != nil {
		return err
	}
	prop.SharesSold = sold
	if prop.SharesSold == prop.TotalShares {
		prop.Status = models.PropertyStatusSoldOut
		prop.SaleActive = false
	}
	return tx.Save(prop).Error
}

func (s *Service) reservationTTL() time.Duration {
	if s.ReservationTTL <= 0 {
		return 15 * time.Minute
	}
	return s.ReservationTTL
}

func loadPlatform(tx *gorm.DB) (*models.Platform, error) {
	var platform models.Platform
	if err := tx.Where("id = ?", 1).First(&platform).Error; err != nil {
		return nil, err
	}
	return &platform, nil
}

func loadProperty(tx *gorm.DB, propertyID uint64) (*models.Property, error) {
	var p models.Property
	if err := tx.Where("property_id = ?", propertyID).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, lederr.ErrPropertyNotFound
		}
		return nil, err
	}
	return &p, nil
}
