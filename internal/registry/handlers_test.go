package registry

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"brix-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRegistryApp(t *testing.T, principal string) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Platform{}, &models.Property{}))
	require.NoError(t, db.Create(&models.Platform{ID: 1, Admin: testAdmin}).Error)

	h := &Handlers{Service: &Service{DB: db}}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if principal != "" {
			c.Locals("principal", map[string]interface{}{"principal_id": principal})
		}
		return c.Next()
	})
	app.Post("/api/v1/registry/register-property", h.RegisterProperty)
	app.Get("/api/v1/registry/properties/:id", h.GetProperty)
	app.Get("/api/v1/registry/platform-fee", h.GetPlatformFee)
	return app, db
}

func TestRegisterProperty_HTTPCreated(t *testing.T) {
	app, _ := setupRegistryApp(t, "owner-1")

	body, _ := json.Marshal(validInput())
	req := httptest.NewRequest("POST", "/api/v1/registry/register-property", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestRegisterProperty_HTTPDuplicateConflict(t *testing.T) {
	app, _ := setupRegistryApp(t, "owner-1")

	body, _ := json.Marshal(validInput())
	req := httptest.NewRequest("POST", "/api/v1/registry/register-property", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	_, err := app.Test(req)
	require.NoError(t, err)

	req = httptest.NewRequest("POST", "/api/v1/registry/register-property", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestGetProperty_HTTPInvalidID(t *testing.T) {
	app, _ := setupRegistryApp(t, "")

	req := httptest.NewRequest("GET", "/api/v1/registry/properties/not-a-number", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetPlatformFee_HTTP(t *testing.T) {
	app, _ := setupRegistryApp(t, "")

	req := httptest.NewRequest("GET", "/api/v1/registry/platform-fee", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			FeeBps uint64 `json:"fee_bps"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, uint64(250), body.Data.FeeBps)
}
