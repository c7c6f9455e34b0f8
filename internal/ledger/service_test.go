package ledger

import (
	"context"
	"testing"

	"brix-backend/internal/models"
	"brix-backend/internal/pkg/lederr"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupLedgerDB(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Platform{}, &models.Property{}, &models.ShareBalance{},
		&models.LedgerTransaction{},
	))
	require.NoError(t, db.Create(&models.Platform{ID: 1, Admin: "admin-principal"}).Error)
	return &Service{DB: db}, db
}

func seedProperty(t *testing.T, db *gorm.DB, totalShares uint64) *models.Property {
	prop := models.Property{
		ContractRef: "ST1.property-token-1",
		Owner:       "owner-1",
		Name:        "Oak Street Duplex",
		Symbol:      "OAK",
		MetadataURI: "ipfs://bafy.../oak.json",
		TotalShares: totalShares,
		Status:      models.PropertyStatusActive,
		MinPurchase: 1,
	}
	require.NoError(t, db.Create(&prop).Error)
	return &prop
}

// mintShares issues shares the way the sale engine does: balance plus
// shares_sold advance together.
func mintShares(t *testing.T, db *gorm.DB, prop *models.Property, holder string, n uint64) {
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := Mint(tx, prop.PropertyID, holder, n); err != nil {
			return err
		}
		prop.SharesSold += n
		return tx.Save(prop).Error
	}))
}

func sumBalances(t *testing.T, db *gorm.DB, propertyID uint64) uint64 {
	var total int64
	row := db.Model(&models.ShareBalance{}).
		Where("property_id = ?", propertyID).
		Select("COALESCE(SUM(shares), 0)").Row()
	require.NoError(t, row.Scan(&total))
	return uint64(total)
}

func TestMint_AccumulatesAndTracksSupply(t *testing.T) {
	s, db := setupLedgerDB(t)
	prop := seedProperty(t, db, 1000)
	ctx := context.Background()

	mintShares(t, db, prop, "alice", 400)
	mintShares(t, db, prop, "alice", 100)
	mintShares(t, db, prop, "bob", 300)

	aliceBal, err := s.BalanceOf(ctx, prop.PropertyID, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), aliceBal)

	supply, err := s.TotalSupply(ctx, prop.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, uint64(800), supply)
	assert.Equal(t, supply, sumBalances(t, db, prop.PropertyID))
}

func TestBalanceOf_UnknownHolderIsZero(t *testing.T) {
	s, db := setupLedgerDB(t)
	prop := seedProperty(t, db, 1000)

	bal, err := s.BalanceOf(context.Background(), prop.PropertyID, "nobody")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bal)
}

func TestBalanceOf_UnknownPropertyFails(t *testing.T) {
	s, _ := setupLedgerDB(t)
	_, err := s.BalanceOf(context.Background(), 99, "alice")
	assert.ErrorIs(t, err, lederr.ErrPropertyNotFound)
}

func TestTransfer_Conservation(t *testing.T) {
	s, db := setupLedgerDB(t)
	prop := seedProperty(t, db, 1000)
	ctx := context.Background()
	mintShares(t, db, prop, "alice", 400)
	mintShares(t, db, prop, "bob", 300)

	require.NoError(t, s.Transfer(ctx, "alice", prop.PropertyID, "alice", "carol", 150))

	aliceBal, _ := s.BalanceOf(ctx, prop.PropertyID, "alice")
	carolBal, _ := s.BalanceOf(ctx, prop.PropertyID, "carol")
	bobBal, _ := s.BalanceOf(ctx, prop.PropertyID, "bob")
	assert.Equal(t, uint64(250), aliceBal)
	assert.Equal(t, uint64(150), carolBal)
	assert.Equal(t, uint64(300), bobBal)
	assert.Equal(t, uint64(700), sumBalances(t, db, prop.PropertyID))
}

func TestTransfer_CallerMustBeSender(t *testing.T) {
	s, db := setupLedgerDB(t)
	prop := seedProperty(t, db, 1000)
	ctx := context.Background()
	mintShares(t, db, prop, "alice", 400)

	err := s.Transfer(ctx, "mallory", prop.PropertyID, "alice", "mallory", 100)
	assert.ErrorIs(t, err, lederr.ErrNotAuthorized)

	aliceBal, _ := s.BalanceOf(ctx, prop.PropertyID, "alice")
	assert.Equal(t, uint64(400), aliceBal)
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	s, db := setupLedgerDB(t)
	prop := seedProperty(t, db, 1000)
	ctx := context.Background()
	mintShares(t, db, prop, "alice", 100)

	err := s.Transfer(ctx, "alice", prop.PropertyID, "alice", "bob", 101)
	assert.ErrorIs(t, err, lederr.ErrInsufficientBalance)

	// Both balances untouched after the failed attempt.
	aliceBal, _ := s.BalanceOf(ctx, prop.PropertyID, "alice")
	bobBal, _ := s.BalanceOf(ctx, prop.PropertyID, "bob")
	assert.Equal(t, uint64(100), aliceBal)
	assert.Equal(t, uint64(0), bobBal)
}

func TestTransfer_NoBalanceRowMeansInsufficient(t *testing.T) {
	s, db := setupLedgerDB(t)
	prop := seedProperty(t, db, 1000)

	err := s.Transfer(context.Background(), "ghost", prop.PropertyID, "ghost", "bob", 1)
	assert.ErrorIs(t, err, lederr.ErrInsufficientBalance)
}

func TestTransfer_ZeroAmountIsAuthorizedNoop(t *testing.T) {
	s, db := setupLedgerDB(t)
	prop := seedProperty(t, db, 1000)
	ctx := context.Background()

	// Authorization check still applies.
	err := s.Transfer(ctx, "mallory", prop.PropertyID, "alice", "bob", 0)
	assert.ErrorIs(t, err, lederr.ErrNotAuthorized)

	// A holder with no shares can send zero.
	require.NoError(t, s.Transfer(ctx, "alice", prop.PropertyID, "alice", "bob", 0))
	assert.Equal(t, uint64(0), sumBalances(t, db, prop.PropertyID))
}

func TestTransfer_RecordsAuditRow(t *testing.T) {
	s, db := setupLedgerDB(t)
	prop := seedProperty(t, db, 1000)
	ctx := context.Background()
	mintShares(t, db, prop, "alice", 10)

	require.NoError(t, s.Transfer(ctx, "alice", prop.PropertyID, "alice", "bob", 5))

	var n int64
	require.NoError(t, db.Model(&models.LedgerTransaction{}).
		Where("property_id = ? AND type = ?", prop.PropertyID, models.TxTransfer).
		Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestGetTokenInfo(t *testing.T) {
	s, db := setupLedgerDB(t)
	prop := seedProperty(t, db, 1000)

	info, err := s.GetTokenInfo(context.Background(), prop.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, "Oak Street Duplex", info.Name)
	assert.Equal(t, "OAK", info.Symbol)
	assert.Equal(t, TokenDecimals, info.Decimals)
	assert.Equal(t, "ipfs://bafy.../oak.json", info.TokenURI)
}
