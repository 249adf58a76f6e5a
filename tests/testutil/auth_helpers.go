package testutil

import (
	"testing"

	"github.com/ponto-de-fuga/restaurant-api/config"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/ponto-de-fuga/restaurant-api/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the password of every profile created by SeedStaff.
const TestPassword = "senha-de-teste"

// SeedStaff stores an active profile with TestPassword. The profile id is
// also its token subject.
func SeedStaff(t *testing.T, db *gorm.DB, id string, role models.Role) models.Profile {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)
	profile := models.Profile{
		Base:         models.Base{ID: id},
		AuthID:       id,
		Email:        id + "@ponto-de-fuga.test",
		FullName:     id,
		Role:         role,
		PasswordHash: string(hash),
	}
	require.NoError(t, db.Create(&profile).Error)
	return profile
}

// BearerToken signs a session token for profile with cfg's secret.
func BearerToken(t *testing.T, cfg *config.Config, profile models.Profile) string {
	t.Helper()

	issuer := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionTTL)
	token, _, err := issuer.Issue(&profile)
	require.NoError(t, err)
	return "Bearer " + token
}
