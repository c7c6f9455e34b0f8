package sale

import (
	"context"
	"errors"
	"testing"
	"time"

	"brix-backend/internal/models"
	"brix-backend/internal/pkg/lederr"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCreator struct {
	lastMetadata map[string]string
	fail         bool
	n            int
}

func (f *fakeCreator) Create(amountCents int64, currency string, metadata map[string]string) (*PaymentIntentResult, error) {
	if f.fail {
		return nil, errors.New("stripe unavailable")
	}
	f.n++
	f.lastMetadata = metadata
	return &PaymentIntentResult{ID: "pi_test_" + metadata["reservation_id"], ClientSecret: "cs_test"}, nil
}

func setupSaleDB(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Platform{}, &models.Property{}, &models.ShareBalance{},
		&models.ShareReservation{}, &models.LedgerTransaction{},
	))
	require.NoError(t, db.Create(&models.Platform{ID: 1, Admin: "admin-principal"}).Error)
	return &Service{DB: db, ReservationTTL: 15 * time.Minute}, db
}

func seedSaleProperty(t *testing.T, db *gorm.DB, totalShares uint64) *models.Property {
	prop := models.Property{
		ContractRef: "ST1.property-token-1",
		Owner:       "owner-1",
		Name:        "Oak Street Duplex",
		Symbol:      "OAK",
		TotalShares: totalShares,
		Status:      models.PropertyStatusActive,
		SharePrice:  500,
		MinPurchase: 10,
		SaleActive:  true,
	}
	require.NoError(t, db.Create(&prop).Error)
	return &prop
}

func propertyByID(t *testing.T, db *gorm.DB, id uint64) *models.Property {
	var p models.Property
	require.NoError(t, db.Where("property_id = ?", id).First(&p).Error)
	return &p
}

func balance(t *testing.T, db *gorm.DB, propertyID uint64, holder string) uint64 {
	var bal models.ShareBalance
	err := db.Where("property_id = ? AND holder = ?", propertyID, holder).First(&bal).Error
	if err == gorm.ErrRecordNotFound {
		return 0
	}
	require.NoError(t, err)
	return bal.Shares
}

func TestPurchase_MintsAndAdvancesSharesSold(t *testing.T) {
	s, db := setupSaleDB(t)
	prop := seedSaleProperty(t, db, 1000)
	ctx := context.Background()

	granted, err := s.Purchase(ctx, "alice", prop.PropertyID, 400)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), granted)

	got := propertyByID(t, db, prop.PropertyID)
	assert.Equal(t, uint64(400), got.SharesSold)
	assert.Equal(t, uint64(400), balance(t, db, prop.PropertyID, "alice"))
}

func TestPurchase_GateOrder(t *testing.T) {
	s, db := setupSaleDB(t)
	prop := seedSaleProperty(t, db, 1000)
	ctx := context.Background()

	// Paused takes precedence over every other gate, sale-active included.
	require.NoError(t, db.Model(&models.Platform{}).Where("id = 1").Update("paused", true).Error)
	require.NoError(t, db.Model(&models.Property{}).Where("property_id = ?", prop.PropertyID).Update("sale_active", false).Error)
	_, err := s.Purchase(ctx, "alice", prop.PropertyID, 0)
	assert.ErrorIs(t, err, lederr.ErrPaused)

	require.NoError(t, db.Model(&models.Platform{}).Where("id = 1").Update("paused", false).Error)
	_, err = s.Purchase(ctx, "alice", prop.PropertyID, 0)
	assert.ErrorIs(t, err, lederr.ErrSaleNotActive)

	require.NoError(t, db.Model(&models.Property{}).Where("property_id = ?", prop.PropertyID).Update("sale_active", true).Error)
	_, err = s.Purchase(ctx, "alice", prop.PropertyID, 0)
	assert.ErrorIs(t, err, lederr.ErrInvalidAmount)
}

func TestPurchase_PropertyStatusPausedBlocks(t *testing.T) {
	s, db := setupSaleDB(t)
	prop := seedSaleProperty(t, db, 1000)
	require.NoError(t, db.Model(&models.Property{}).Where("property_id = ?", prop.PropertyID).Update("status", models.PropertyStatusPaused).Error)

	_, err := s.Purchase(context.Background(), "alice", prop.PropertyID, 100)
	assert.ErrorIs(t, err, lederr.ErrPaused)
}

func TestPurchase_BelowMinimumLot(t *testing.T) {
	s, db := setupSaleDB(t)
	prop := seedSaleProperty(t, db, 1000)

	_, err := s.Purchase(context.Background(), "alice", prop.PropertyID, 9)
	assert.ErrorIs(t, err, lederr.ErrInvalidAmount)
}

func TestPurchase_NeverExceedsCap(t *testing.T) {
	s, db := setupSaleDB(t)
	prop := seedSaleProperty(t, db, 1000)
	ctx := context.Background()

	_, err := s.Purchase(ctx, "alice", prop.PropertyID, 1001)
	assert.ErrorIs(t, err, lederr.ErrInsufficientShares)

	_, err = s.Purchase(ctx, "alice", prop.PropertyID, 600)
	require.NoError(t, err)

	// 600 sold; 401 more would exceed the cap and must leave shares_sold unchanged.
	_, err = s.Purchase(ctx, "bob", prop.PropertyID, 401)
	assert.ErrorIs(t, err, lederr.ErrInsufficientShares)
	assert.Equal(t, uint64(600), propertyByID(t, db, prop.PropertyID).SharesSold)

	_, err = s.Purchase(ctx, "bob", prop.PropertyID, 400)
	require.NoError(t, err)

	got := propertyByID(t, db, prop.PropertyID)
	assert.Equal(t, uint64(1000), got.SharesSold)
	assert.Equal(t, models.PropertyStatusSoldOut, got.Status)
	assert.False(t, got.SaleActive)
}

func TestSetSaleActive_OwnerOnly(t *testing.T) {
	s, db := setupSaleDB(t)
	prop := seedSaleProperty(t, db, 1000)
	ctx := context.Background()

	err := s.SetSaleActive(ctx, "intruder", prop.PropertyID, false)
	assert.ErrorIs(t, err, lederr.ErrNotAuthorized)

	require.NoError(t, s.SetSaleActive(ctx, "owner-1", prop.PropertyID, false))
	assert.False(t, propertyByID(t, db, prop.PropertyID).SaleActive)
}

func TestReserve_HoldsSupplyAndCreatesPaymentIntent(t *testing.T) {
	s, db := setupSaleDB(t)
	prop := seedSaleProperty(t, db, 1000)
	ctx := context.Background()
	creator := &fakeCreator{}

	res, secret, err := s.Reserve(ctx, "alice", prop.PropertyID, 700, creator)
	require.NoError(t, err)
	assert.Equal(t, "cs_test", secret)
	assert.Equal(t, uint64(700*500), res.AmountCents)
	assert.Equal(t, "alice", creator.lastMetadata["buyer"])
	assert.Equal(t, "700", creator.lastMetadata["shares"])

	// The pending hold counts against supply for direct purchases too.
	_, err = s.Purchase(ctx, "bob", prop.PropertyID, 301)
	assert.ErrorIs(t, err, lederr.ErrInsufficientShares)

	_, err = s.Purchase(ctx, "bob", prop.PropertyID, 300)
	require.NoError(t, err)
}

func TestReserve_CreatorFailureReleasesHold(t *testing.T) {
	s, db := setupSaleDB(t)
	prop := seedSaleProperty(t, db, 1000)
	ctx := context.Background()

	_, _, err := s.Reserve(ctx, "alice", prop.PropertyID, 700, &fakeCreator{fail: true})
	require.Error(t, err)

	var n int64
	require.NoError(t, db.Model(&models.ShareReservation{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)

	// Full supply is available again.
	_, err = s.Purchase(ctx, "bob", prop.PropertyID, 1000)
	require.NoError(t, err)
}

func TestConfirmReservation_MintsOnceIdempotently(t *testing.T) {
	s, db := setupSaleDB(t)
	prop := seedSaleProperty(t, db, 1000)
	ctx := context.Background()
	creator := &fakeCreator{}

	res, _, err := s.Reserve(ctx, "alice", prop.PropertyID, 400, creator)
	require.NoError(t, err)

	require.NoError(t, s.ConfirmReservation(ctx, *res.PaymentIntentID, []byte(`{"id":"evt_1"}`)))
	require.NoError(t, s.ConfirmReservation(ctx, *res.PaymentIntentID, []byte(`{"id":"evt_1"}`)))

	assert.Equal(t, uint64(400), balance(t, db, prop.PropertyID, "alice"))
	assert.Equal(t, uint64(400), propertyByID(t, db, prop.PropertyID).SharesSold)

	got, err := s.GetReservation(ctx, res.ReservationID.String())
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, got.Status)
}

func TestConfirmReservation_UnknownPaymentIntent(t *testing.T) {
	s, _ := setupSaleDB(t)
	err := s.ConfirmReservation(context.Background(), "pi_unknown", nil)
	assert.ErrorIs(t, err, lederr.ErrReservationNotFound)
}

func TestExpiredReservation_ReleasesSupply(t *testing.T) {
	s, db := setupSaleDB(t)
	prop := seedSaleProperty(t, db, 1000)
	ctx := context.Background()
	creator := &fakeCreator{}

	res, _, err := s.Reserve(ctx, "alice", prop.PropertyID, 700, creator)
	require.NoError(t, err)

	// Force the hold past its deadline.
	require.NoError(t, db.Model(&models.ShareReservation{}).
		Where("reservation_id = ?", res.ReservationID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	// Supply is free again once the expired hold is swept.
	_, err = s.Purchase(ctx, "bob", prop.PropertyID, 1000)
	require.NoError(t, err)

	got, err := s.GetReservation(ctx, res.ReservationID.String())
	require.NoError(t, err)
	assert.Equal(t, models.ReservationExpired, got.Status)
}

func TestLateConfirm_FailsWhenSupplyGone(t *testing.T) {
	s, db := setupSaleDB(t)
	prop := seedSaleProperty(t, db, 1000)
	ctx := context.Background()
	creator := &fakeCreator{}

	res, _, err := s.Reserve(ctx, "alice", prop.PropertyID, 700, creator)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.ShareReservation{}).
		Where("reservation_id = ?", res.ReservationID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = s.Purchase(ctx, "bob", prop.PropertyID, 1000)
	require.NoError(t, err)

	err = s.ConfirmReservation(ctx, *res.PaymentIntentID, []byte(`{"id":"evt_late"}`))
	assert.ErrorIs(t, err, lederr.ErrInsufficientShares)
	assert.Equal(t, uint64(0), balance(t, db, prop.PropertyID, "alice"))
}

func TestLateConfirm_HonoredWhileSupplyRemains(t *testing.T) {
	s, db := setupSaleDB(t)
	prop := seedSaleProperty(t, db, 1000)
	ctx := context.Background()
	creator := &fakeCreator{}

	res, _, err := s.Reserve(ctx, "alice", prop.PropertyID, 700, creator)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.ShareReservation{}).
		Where("reservation_id = ?", res.ReservationID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	require.NoError(t, s.ConfirmReservation(ctx, *res.PaymentIntentID, []byte(`{"id":"evt_late"}`)))
	assert.Equal(t, uint64(700), balance(t, db, prop.PropertyID, "alice"))
}
