package auth

import (
	"errors"

	"brix-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrCredentialsRequired = errors.New("Principal and password are required")
	ErrInvalidPrincipal    = errors.New("Invalid principal or password")
	ErrNotAuthenticated    = errors.New("Not authenticated")
)

// LoginInput for login request body.
type LoginInput struct {
	PrincipalID string `json:"principal_id"`
	Password    string `json:"password"`
}

// PrincipalFinder abstracts principal lookup (production GORM or test doubles).
type PrincipalFinder interface {
	FindByCredentials(principalID, password string) (*models.Principal, error)
}

// GormPrincipalFinder implements PrincipalFinder using GORM and bcrypt.
type GormPrincipalFinder struct{ DB *gorm.DB }

func (g *GormPrincipalFinder) FindByCredentials(principalID, password string) (*models.Principal, error) {
	return LoginPrincipal(g.DB, LoginInput{PrincipalID: principalID, Password: password})
}

// LoginPrincipal finds the principal and verifies the password.
func LoginPrincipal(db *gorm.DB, input LoginInput) (*models.Principal, error) {
	if input.PrincipalID == "" || input.Password == "" {
		return nil, ErrCredentialsRequired
	}
	var p models.Principal
	if err := db.Where("principal_id = ?", input.PrincipalID).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidPrincipal
		}
		return nil, err
	}
	if p.PasswordHash == "" {
		return nil, ErrInvalidPrincipal
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidPrincipal
	}
	return &p, nil
}

// RegisterPrincipal creates a principal with a bcrypt password hash.
func RegisterPrincipal(db *gorm.DB, principalID, displayName, password string) (*models.Principal, error) {
	if principalID == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	p := models.Principal{
		PrincipalID:  principalID,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// VerifyPrincipal validates the session principal and returns its shape for /me.
func VerifyPrincipal(sessionPrincipal interface{}) (map[string]string, error) {
	if sessionPrincipal == nil {
		return nil, ErrNotAuthenticated
	}
	m, ok := sessionPrincipal.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	id, _ := m["principal_id"].(string)
	if id == "" {
		return nil, ErrNotAuthenticated
	}
	name, _ := m["display_name"].(string)
	return map[string]string{"principal_id": id, "display_name": name}, nil
}
