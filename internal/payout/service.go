package payout

import (
	"context"
	"encoding/json"
	"time"

	"brix-backend/internal/models"
	"brix-backend/internal/pkg/lederr"
	"brix-backend/internal/pkg/u64"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// Distribute creates a payout round for the property: the caller must be the
// configured oracle, the amount must be positive, and the round snapshots
// shares outstanding at this instant. O(1) — no holder iteration; per-holder
// cost is paid by individual claims. Round ids are sequential per property
// and assigned inside the transaction, so concurrent distributes commit as
// rounds N and N+1.
func (s *Service) Distribute(ctx context.Context, caller string, propertyID uint64, totalAmount uint64) (uint64, error) {
	var roundID uint64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prop, err := loadProperty(tx, propertyID)
		if err != nil {
			return err
		}
		if prop.Oracle == "" || caller != prop.Oracle {
			return lederr.ErrInvalidOracle
		}
		if totalAmount == 0 {
			return lederr.ErrInvalidAmount
		}

		roundID = prop.CurrentRound + 1
		round := models.PayoutRound{
			PropertyID:     propertyID,
			RoundID:        roundID,
			TotalAmount:    totalAmount,
			SharesSnapshot: prop.SharesSold,
			DistributedAt:  time.Now(),
		}
		if err := tx.Create(&round).Error; err != nil {
			return err
		}

		prop.CurrentRound = roundID
		if err := tx.Save(prop).Error; err != nil {
			return err
		}

		// Fund the property escrow; claims draw from it and floor-rounding
		// dust accumulates here untracked.
		escrow := models.EscrowPrincipal(propertyID)
		if err := creditAccount(tx, escrow, totalAmount); err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"round_id":        roundID,
			"shares_snapshot": round.SharesSnapshot,
			"oracle":          caller,
		})
		return tx.Create(&models.LedgerTransaction{
			Type:        models.TxDistribute,
			PropertyID:  propertyID,
			ToPrincipal: &escrow,
			Amount:      totalAmount,
			RoundID:     &roundID,
			EventData:   datatypes.JSON(payload),
		}).Error
	})
	if err != nil {
		return 0, err
	}
	log.Info().Uint64("property_id", propertyID).Uint64("round_id", roundID).Uint64("total_amount", totalAmount).Msg("Payout round created")
	return roundID, nil
}

// Claimable is the read-only entitlement view for one (round, holder).
type Claimable struct {
	Claimable      uint64 `json:"claimable"`
	Shares         uint64 `json:"shares"`
	AlreadyClaimed bool   `json:"already_claimed"`
}

// CalculateClaimable computes floor(total_amount * shares / snapshot) with a
// 128-bit intermediate product, using the holder's balance at call time. The
// value is informational when already claimed; ClaimPayout rejects those.
func (s *Service) CalculateClaimable(ctx context.Context, propertyID, roundID uint64, holder string) (*Claimable, error) {
	db := s.DB.WithContext(ctx)
	prop, err := loadProperty(db, propertyID)
	if err != nil {
		return nil, err
	}
	round, err := loadRound(db, prop, roundID)
	if err != nil {
		return nil, err
	}
	shares, err := balanceOf(db, propertyID, holder)
	if err != nil {
		return nil, err
	}
	claimable, err := u64.MulDiv(round.TotalAmount, shares, round.SharesSnapshot)
	if err != nil {
		return nil, err
	}
	claimed, err := hasClaimed(db, propertyID, roundID, holder)
	if err != nil {
		return nil, err
	}
	return &Claimable{Claimable: claimable, Shares: shares, AlreadyClaimed: claimed}, nil
}

// ClaimPayout pays the caller's entitlement for one round, at most once. The
// claim record is written before the settlement credit in the same
// transaction (check-effects ordering), so re-entry cannot double-claim. A
// zero entitlement still marks the record so retries stay meaningless.
func (s *Service) ClaimPayout(ctx context.Context, caller string, propertyID, roundID uint64) (uint64, error) {
	var paid uint64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		platform, err := loadPlatform(tx)
		if err != nil {
			return err
		}
		prop, err := loadProperty(tx, propertyID)
		if err != nil {
			return err
		}
		if platform.Paused || prop.Paused() {
			return lederr.ErrPaused
		}
		round, err := loadRound(tx, prop, roundID)
		if err != nil {
			return err
		}
		claimed, err := hasClaimed(tx, propertyID, roundID, caller)
		if err != nil {
			return err
		}
		if claimed {
			return lederr.ErrAlreadyClaimed
		}

		shares, err := balanceOf(tx, propertyID, caller)
		if err != nil {
			return err
		}
		amount, err := u64.MulDiv(round.TotalAmount, shares, round.SharesSnapshot)
		if err != nil {
			return err
		}

		// Mark claimed before any value movement.
		record := models.ClaimRecord{
			PropertyID: propertyID,
			RoundID:    roundID,
			Holder:     caller,
			Amount:     amount,
			ClaimedAt:  time.Now(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		if amount > 0 {
			escrow := models.EscrowPrincipal(propertyID)
			if err := debitAccount(tx, escrow, amount); err != nil {
				return err
			}
			if err := creditAccount(tx, caller, amount); err != nil {
				return err
			}
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"round_id": roundID,
			"shares":   shares,
			"snapshot": round.SharesSnapshot,
		})
		if err := tx.Create(&models.LedgerTransaction{
			Type:          models.TxClaim,
			PropertyID:    propertyID,
			FromPrincipal: strPtr(models.EscrowPrincipal(propertyID)),
			ToPrincipal:   &caller,
			Amount:        amount,
			RoundID:       &roundID,
			EventData:     datatypes.JSON(payload),
		}).Error; err != nil {
			return err
		}

		paid = amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Info().Uint64("property_id", propertyID).Uint64("round_id", roundID).Str("holder", caller).Uint64("amount", paid).Msg("Payout claimed")
	return paid, nil
}

// GetCurrentRound returns the property's latest round id (0 when none).
func (s *Service) GetCurrentRound(ctx context.Context, propertyID uint64) (uint64, error) {
	prop, err := loadProperty(s.DB.WithContext(ctx), propertyID)
	if err != nil {
		return 0, err
	}
	return prop.CurrentRound, nil
}

// GetPayoutRound returns one round.
func (s *Service) GetPayoutRound(ctx context.Context, propertyID, roundID uint64) (*models.PayoutRound, error) {
	db := s.DB.WithContext(ctx)
	prop, err := loadProperty(db, propertyID)
	if err != nil {
		return nil, err
	}
	return loadRound(db, prop, roundID)
}

// HasClaimed reports whether the holder already claimed the round.
func (s *Service) HasClaimed(ctx context.Context, propertyID, roundID uint64, holder string) (bool, error) {
	db := s.DB.WithContext(ctx)
	prop, err := loadProperty(db, propertyID)
	if err != nil {
		return false, err
	}
	if _, err := loadRound(db, prop, roundID); err != nil {
		return false, err
	}
	return hasClaimed(db, propertyID, roundID, holder)
}

// GetAccountBalance returns the settlement balance for a principal (holders
// and property escrow accounts alike).
func (s *Service) GetAccountBalance(ctx context.Context, principal string) (uint64, error) {
	var acct models.Account
	err := s.DB.WithContext(ctx).Where("principal = ?", principal).First(&acct).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

func loadRound(tx *gorm.DB, prop *models.Property, roundID uint64) (*models.PayoutRound, error) {
	if roundID == 0 || roundID > prop.CurrentRound {
		return nil, lederr.ErrNoPayoutAvailable
	}
	var round models.PayoutRound
	if err := tx.Where("property_id = ? AND round_id = ?", prop.PropertyID, roundID).First(&round).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, lederr.ErrNoPayoutAvailable
		}
		return nil, err
	}
	return &round, nil
}

func hasClaimed(tx *gorm.DB, propertyID, roundID uint64, holder string) (bool, error) {
	var record models.ClaimRecord
	err := tx.Where("property_id = ? AND round_id = ? AND holder = ?", propertyID, roundID, holder).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func balanceOf(tx *gorm.DB, propertyID uint64, holder string) (uint64, error) {
	var bal models.ShareBalance
	err := tx.Where("property_id = ? AND holder = ?", propertyID, holder).First(&bal).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return bal.Shares, nil
}

func creditAccount(tx *gorm.DB, principal string, amount uint64) error {
	var acct models.Account
	err := tx.Where("principal = ?", principal).First(&acct).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&models.Account{Principal: principal, Balance: amount}).Error
	}
	if err != nil {
		return err
	}
	next, err := u64.Add(acct.Balance, amount)
	if err != nil {
		return err
	}
	acct.Balance = next
	return tx.Save(&acct).Error
}

func debitAccount(tx *gorm.DB, principal string, amount uint64) error {
	var acct models.Account
	if err := tx.Where("principal = ?", principal).First(&acct).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return lederr.ErrInsufficientBalance
		}
		return err
	}
	if acct.Balance < amount {
		return lederr.ErrInsufficientBalance
	}
	acct.Balance -= amount
	return tx.Save(&acct).Error
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

func strPtr(s string) *string {
	return &s
}
