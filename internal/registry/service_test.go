package registry

import (
	"context"
	"testing"
	"time"

	"brix-backend/internal/models"
	"brix-backend/internal/pkg/lederr"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testAdmin = "admin-principal"

func setupRegistryDB(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Platform{}, &models.Property{}, &models.ShareBalance{},
		&models.PayoutRound{}, &models.ClaimRecord{}, &models.ShareReservation{},
		&models.LedgerTransaction{}, &models.Account{},
	))
	require.NoError(t, db.Create(&models.Platform{ID: 1, Admin: testAdmin}).Error)
	return &Service{DB: db}, db
}

func validInput() RegisterInput {
	return RegisterInput{
		ContractRef: "ST1.property-token-1",
		Name:        "Oak Street Duplex",
		Symbol:      "OAK",
		Location:    "Austin, TX",
		MetadataURI: "ipfs://bafy.../oak.json",
		TotalShares: 1000,
		SharePrice:  500,
		MinPurchase: 10,
	}
}

func TestRegisterProperty_AssignsSequentialIDs(t *testing.T) {
	s, _ := setupRegistryDB(t)
	ctx := context.Background()

	first, err := s.RegisterProperty(ctx, "owner-1", validInput())
	require.NoError(t, err)

	second := validInput()
	second.ContractRef = "ST1.property-token-2"
	prop2, err := s.RegisterProperty(ctx, "owner-1", second)
	require.NoError(t, err)

	assert.Equal(t, first.PropertyID+1, prop2.PropertyID)
	assert.Equal(t, "owner-1", first.Owner)
	assert.Equal(t, models.PropertyStatusActive, first.Status)
	assert.False(t, first.SaleActive)
}

func TestRegisterProperty_DuplicateContractRef(t *testing.T) {
	s, _ := setupRegistryDB(t)
	ctx := context.Background()

	_, err := s.RegisterProperty(ctx, "owner-1", validInput())
	require.NoError(t, err)

	_, err = s.RegisterProperty(ctx, "owner-2", validInput())
	assert.ErrorIs(t, err, lederr.ErrPropertyExists)
}

func TestRegisterProperty_ZeroShares(t *testing.T) {
	s, _ := setupRegistryDB(t)
	in := validInput()
	in.TotalShares = 0
	_, err := s.RegisterProperty(context.Background(), "owner-1", in)
	assert.ErrorIs(t, err, lederr.ErrInvalidData)
}

func TestRegisterProperty_FactoryPaused(t *testing.T) {
	s, _ := setupRegistryDB(t)
	ctx := context.Background()
	require.NoError(t, s.SetPaused(ctx, testAdmin, true))

	_, err := s.RegisterProperty(ctx, "owner-1", validInput())
	assert.ErrorIs(t, err, lederr.ErrPaused)

	require.NoError(t, s.SetPaused(ctx, testAdmin, false))
	_, err = s.RegisterProperty(ctx, "owner-1", validInput())
	assert.NoError(t, err)
}

func TestUpdateStatus_OwnerOnly(t *testing.T) {
	s, _ := setupRegistryDB(t)
	ctx := context.Background()
	prop, err := s.RegisterProperty(ctx, "owner-1", validInput())
	require.NoError(t, err)

	_, err = s.UpdateStatus(ctx, "intruder", prop.PropertyID, models.PropertyStatusPaused)
	assert.ErrorIs(t, err, lederr.ErrNotAuthorized)

	updated, err := s.UpdateStatus(ctx, "owner-1", prop.PropertyID, models.PropertyStatusPaused)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusPaused, updated.Status)
	assert.True(t, updated.Paused())
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	s, _ := setupRegistryDB(t)
	ctx := context.Background()
	prop, err := s.RegisterProperty(ctx, "owner-1", validInput())
	require.NoError(t, err)

	_, err = s.UpdateStatus(ctx, "owner-1", prop.PropertyID, "liquidated")
	assert.ErrorIs(t, err, lederr.ErrInvalidData)
}

func TestUpdateStats_OwnerOnlyAndInformational(t *testing.T) {
	s, _ := setupRegistryDB(t)
	ctx := context.Background()
	prop, err := s.RegisterProperty(ctx, "owner-1", validInput())
	require.NoError(t, err)

	now := time.Now()
	_, err = s.UpdateStats(ctx, "intruder", prop.PropertyID, 1, 1, &now)
	assert.ErrorIs(t, err, lederr.ErrNotAuthorized)

	updated, err := s.UpdateStats(ctx, "owner-1", prop.PropertyID, 500_000, 42, &now)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), updated.TotalRaised)
	assert.Equal(t, uint64(42), updated.TotalInvestors)

	// Stats never touch authoritative sale accounting.
	assert.Equal(t, uint64(0), updated.SharesSold)
}

func TestSetTreasuryAndOracle_Authorization(t *testing.T) {
	s, _ := setupRegistryDB(t)
	ctx := context.Background()
	prop, err := s.RegisterProperty(ctx, "owner-1", validInput())
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetTreasury(ctx, "owner-1", "treasury-1"), lederr.ErrNotAuthorized)
	require.NoError(t, s.SetTreasury(ctx, testAdmin, "treasury-1"))

	assert.ErrorIs(t, s.SetAuthorizedOracle(ctx, "intruder", prop.PropertyID, "oracle-1"), lederr.ErrNotAuthorized)
	require.NoError(t, s.SetAuthorizedOracle(ctx, "owner-1", prop.PropertyID, "oracle-1"))

	got, err := s.GetProperty(ctx, prop.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, "oracle-1", got.Oracle)
}

func TestAccessors(t *testing.T) {
	s, _ := setupRegistryDB(t)
	ctx := context.Background()
	prop, err := s.RegisterProperty(ctx, "owner-1", validInput())
	require.NoError(t, err)

	id, err := s.GetPropertyIDByContract(ctx, prop.ContractRef)
	require.NoError(t, err)
	assert.Equal(t, prop.PropertyID, id)

	_, err = s.GetPropertyIDByContract(ctx, "ST1.nope")
	assert.ErrorIs(t, err, lederr.ErrPropertyNotFound)

	owned, err := s.GetOwnerProperties(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	n, err := s.GetPropertyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetProperty(ctx, 999)
	assert.ErrorIs(t, err, lederr.ErrPropertyNotFound)
}
