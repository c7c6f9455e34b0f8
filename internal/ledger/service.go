package ledger

import (
	"context"
	"encoding/json"

	"brix-backend/internal/models"
	"brix-backend/internal/pkg/lederr"
	"brix-backend/internal/pkg/u64"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TokenDecimals is fixed for all property share tokens.
const TokenDecimals = 6

type Service struct {
	DB *gorm.DB
}

// Mint credits newly issued shares to the holder inside the caller's
// transaction. It is the issuance path of the sale engine and is not exposed
// over HTTP; supply accounting (shares_sold) stays with the caller so both
// updates commit together.
func Mint(tx *gorm.DB, propertyID uint64, holder string, amount uint64) error {
	if holder == "" {
		return lederr.ErrInvalidData
	}
	var bal models.ShareBalance
	err := tx.Where("property_id = ? AND holder = ?", propertyID, holder).First(&bal).Error
	if err == gorm.ErrRecordNotFound {
		bal = models.ShareBalance{PropertyID: propertyID, Holder: holder, Shares: amount}
		return tx.Create(&bal).Error
	}
	if err != nil {
		return err
	}
	next, err := u64.Add(bal.Shares, amount)
	if err != nil {
		return err
	}
	bal.Shares = next
	return tx.Save(&bal).Error
}

// Transfer moves shares between holders. The caller must be the sender; the
// move is atomic (both balances update or neither). Zero-amount transfers are
// permitted and change nothing beyond the authorization check.
func (s *Service) Transfer(ctx context.Context, caller string, propertyID uint64, sender, recipient string, amount uint64) error {
	if caller != sender {
		return lederr.ErrNotAuthorized
	}
	if recipient == "" {
		return lederr.ErrInvalidData
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadProperty(tx, propertyID); err != nil {
			return err
		}
		if amount == 0 {
			return nil
		}
		if sender == recipient {
			// Self-transfer conserves balances trivially; still requires funds.
			var self models.ShareBalance
			if err := tx.Where("property_id = ? AND holder = ?", propertyID, sender).First(&self).Error; err != nil || self.Shares < amount {
				return lederr.ErrInsufficientBalance
			}
			return recordTransfer(tx, propertyID, sender, recipient, amount)
		}

		var from models.ShareBalance
		if err := tx.Where("property_id = ? AND holder = ?", propertyID, sender).First(&from).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return lederr.ErrInsufficientBalance
			}
			return err
		}
		if from.Shares < amount {
			return lederr.ErrInsufficientBalance
		}
		from.Shares -= amount
		if err := tx.Save(&from).Error; err != nil {
			return err
		}

		var to models.ShareBalance
		err := tx.Where("property_id = ? AND holder = ?", propertyID, recipient).First(&to).Error
		if err == gorm.ErrRecordNotFound {
			to = models.ShareBalance{PropertyID: propertyID, Holder: recipient, Shares: amount}
			if err := tx.Create(&to).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else {
			next, err := u64.Add(to.Shares, amount)
			if err != nil {
				return err
			}
			to.Shares = next
			if err := tx.Save(&to).Error; err != nil {
				return err
			}
		}

		return recordTransfer(tx, propertyID, sender, recipient, amount)
	})
}

// BalanceOf returns the holder's share count, zero for unknown holders.
func (s *Service) BalanceOf(ctx context.Context, propertyID uint64, holder string) (uint64, error) {
	if _, err := loadProperty(s.DB.WithContext(ctx), propertyID); err != nil {
		return 0, err
	}
	return balanceOf(s.DB.WithContext(ctx), propertyID, holder)
}

// TotalSupply returns the property's shares outstanding (equals shares_sold).
func (s *Service) TotalSupply(ctx context.Context, propertyID uint64) (uint64, error) {
	p, err := loadProperty(s.DB.WithContext(ctx), propertyID)
	if err != nil {
		return 0, err
	}
	return p.SharesSold, nil
}

// TokenInfo is the fungible-token introspection result.
type TokenInfo struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	TokenURI string `json:"token_uri"`
}

// GetTokenInfo returns name/symbol/decimals/token-uri for the property token.
func (s *Service) GetTokenInfo(ctx context.Context, propertyID uint64) (*TokenInfo, error) {
	p, err := loadProperty(s.DB.WithContext(ctx), propertyID)
	if err != nil {
		return nil, err
	}
	return &TokenInfo{
		Name:     p.Name,
		Symbol:   p.Symbol,
		Decimals: TokenDecimals,
		TokenURI: p.MetadataURI,
	}, nil
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

func recordTransfer(tx *gorm.DB, propertyID uint64, sender, recipient string, amount uint64) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"sender":    sender,
		"recipient": recipient,
		"shares":    amount,
	})
	return tx.Create(&models.LedgerTransaction{
		Type:          models.TxTransfer,
		PropertyID:    propertyID,
		FromPrincipal: &sender,
		ToPrincipal:   &recipient,
		Amount:        amount,
		EventData:     datatypes.JSON(payload),
	}).Error
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
