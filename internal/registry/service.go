package registry

import (
	"context"
	"time"

	"brix-backend/internal/models"
	"brix-backend/internal/pkg/lederr"

	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// RegisterInput holds the property registration payload.
type RegisterInput struct {
	ContractRef string `json:"contract_ref"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Location    string `json:"location"`
	MetadataURI string `json:"metadata_uri"`
	TotalShares uint64 `json:"total_shares"`
	SharePrice  uint64 `json:"share_price"`
	MinPurchase uint64 `json:"min_purchase"`
}

// RegisterProperty creates a property record with the next sequential id and
// appends it to the caller's owned properties. Duplicate contract refs are
// rejected; the factory pause switch blocks registration.
func (s *Service) RegisterProperty(ctx context.Context, caller string, in RegisterInput) (*models.Property, error) {
	if in.TotalShares == 0 {
		return nil, lederr.ErrInvalidData
	}
	if in.ContractRef == "" || in.Name == "" || in.Symbol == "" {
		return nil, lederr.ErrInvalidData
	}
	if len(in.ContractRef) > 128 || len(in.Name) > 64 || len(in.Symbol) > 16 ||
		len(in.Location) > 128 || len(in.MetadataURI) > 256 {
		return nil, lederr.ErrInvalidData
	}

	var prop models.Property
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		platform, err := loadPlatform(tx)
		if err != nil {
			return err
		}
		if platform.Paused {
			return lederr.ErrPaused
		}

		var existing models.Property
		if err := tx.Where("contract_ref = ?", in.ContractRef).First(&existing).Error; err == nil {
			return lederr.ErrPropertyExists
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		minPurchase := in.MinPurchase
		if minPurchase == 0 {
			minPurchase = 1
		}
		prop = models.Property{
			ContractRef: in.ContractRef,
			Owner:       caller,
			Name:        in.Name,
			Symbol:      in.Symbol,
			Location:    in.Location,
			MetadataURI: in.MetadataURI,
			TotalShares: in.TotalShares,
			Status:      models.PropertyStatusActive,
			SharePrice:  in.SharePrice,
			MinPurchase: minPurchase,
		}
		return tx.Create(&prop).Error
	})
	if err != nil {
		return nil, err
	}
	return &prop, nil
}

// UpdateStatus sets the property status (owner only).
func (s *Service) UpdateStatus(ctx context.Context, caller string, propertyID uint64, status string) (*models.Property, error) {
	switch status {
	case models.PropertyStatusActive, models.PropertyStatusPaused, models.PropertyStatusSoldOut:
	default:
		return nil, lederr.ErrInvalidData
	}
	var prop models.Property
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadProperty(tx, propertyID)
		if err != nil {
			return err
		}
		if p.Owner != caller {
			return lederr.ErrNotAuthorized
		}
		p.Status = status
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		prop = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &prop, nil
}

// UpdateStats writes the informational stats cache (owner only). Settlement
// math never reads these fields.
func (s *Service) UpdateStats(ctx context.Context, caller string, propertyID uint64, totalRaised, totalInvestors uint64, lastPayout *time.Time) (*models.Property, error) {
	var prop models.Property
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadProperty(tx, propertyID)
		if err != nil {
			return err
		}
		if p.Owner != caller {
			return lederr.ErrNotAuthorized
		}
		p.TotalRaised = totalRaised
		p.TotalInvestors = totalInvestors
		if lastPayout != nil {
			p.LastPayout = lastPayout
		}
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		prop = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &prop, nil
}

// SetPaused flips the global factory pause switch (admin only).
func (s *Service) SetPaused(ctx context.Context, caller string, value bool) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		platform, err := loadPlatform(tx)
		if err != nil {
			return err
		}
		if platform.Admin != caller {
			return lederr.ErrNotAuthorized
		}
		platform.Paused = value
		return tx.Save(platform).Error
	})
}

// SetTreasury sets the treasury principal (admin only).
func (s *Service) SetTreasury(ctx context.Context, caller, treasury string) error {
	if treasury == "" {
		return lederr.ErrInvalidData
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		platform, err := loadPlatform(tx)
		if err != nil {
			return err
		}
		if platform.Admin != caller {
			return lederr.ErrNotAuthorized
		}
		platform.Treasury = treasury
		return tx.Save(platform).Error
	})
}

// SetAuthorizedOracle configures the principal allowed to trigger payouts for
// the property (owner only).
func (s *Service) SetAuthorizedOracle(ctx context.Context, caller string, propertyID uint64, oracle string) error {
	if oracle == "" {
		return lederr.ErrInvalidData
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadProperty(tx, propertyID)
		if err != nil {
			return err
		}
		if p.Owner != caller {
			return lederr.ErrNotAuthorized
		}
		p.Oracle = oracle
		return tx.Save(p).Error
	})
}

// GetProperty returns one property by id.
func (s *Service) GetProperty(ctx context.Context, propertyID uint64) (*models.Property, error) {
	return loadProperty(s.DB.WithContext(ctx), propertyID)
}

// GetPropertyIDByContract resolves an external contract reference to the
// registered property id.
func (s *Service) GetPropertyIDByContract(ctx context.Context, contractRef string) (uint64, error) {
	var p models.Property
	if err := s.DB.WithContext(ctx).Where("contract_ref = ?", contractRef).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, lederr.ErrPropertyNotFound
		}
		return 0, err
	}
	return p.PropertyID, nil
}

// GetOwnerProperties lists properties registered by the principal.
func (s *Service) GetOwnerProperties(ctx context.Context, owner string) ([]models.Property, error) {
	var props []models.Property
	if err := s.DB.WithContext(ctx).Where("owner = ?", owner).Order("property_id asc").Find(&props).Error; err != nil {
		return nil, err
	}
	return props, nil
}

// GetPropertyCount returns the number of registered properties.
func (s *Service) GetPropertyCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.Property{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// GetPlatform returns the global configuration row.
func (s *Service) GetPlatform(ctx context.Context) (*models.Platform, error) {
	return loadPlatform(s.DB.WithContext(ctx))
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
