package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-with-enough-entropy"

func newTestAccountService(t *testing.T) (*AccountService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewAccountService(db, NewTokenIssuer(testSecret, "restaurant-api", "restaurant-api", time.Hour)), db
}

func seedUnit(t *testing.T, db *gorm.DB, name string) models.Unit {
	t.Helper()
	unit := models.Unit{Name: name}
	require.NoError(t, db.Create(&unit).Error)
	return unit
}

func TestAccountService_CreateUserAndLogin(t *testing.T) {
	svc, _ := newTestAccountService(t)
	ctx := context.Background()

	profile, err := svc.CreateUser(ctx, adminID, CreateUserInput{
		Email:    "  Maria@Example.com ",
		Password: "garcom-123",
		FullName: "Maria Souza",
		Role:     models.RoleWaiter,
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", profile.Email)
	assert.Equal(t, profile.ID, profile.AuthID, "local accounts use their id as token subject")
	assert.NotEmpty(t, profile.PasswordHash)
	assert.NotEqual(t, "garcom-123", profile.PasswordHash)

	session, err := svc.Login(ctx, "MARIA@example.com", "garcom-123")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, session.Profile.ID)
	assert.NotEmpty(t, session.Token)

	claims := &SessionClaims{}
	_, err = jwt.ParseWithClaims(session.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, profile.AuthID, claims.Subject)
	assert.Equal(t, string(models.RoleWaiter), claims.Role)

	_, err = svc.Login(ctx, "maria@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	_, err = svc.Login(ctx, "nobody@example.com", "garcom-123")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	found, err := svc.Lookup(ctx, profile.AuthID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, found.ID)
}

func TestAccountService_CreateUserValidation(t *testing.T) {
	svc, _ := newTestAccountService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, adminID, CreateUserInput{Email: "a@example.com", Password: "long-enough", FullName: "A", Role: models.RoleWaiter})
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      Identity
		input   CreateUserInput
		wantErr *Error
	}{
		{"waiter cannot create users", waiterID, CreateUserInput{Email: "b@example.com", Password: "long-enough", FullName: "B", Role: models.RoleWaiter}, ErrForbidden},
		{"missing email", adminID, CreateUserInput{Password: "long-enough", FullName: "B", Role: models.RoleWaiter}, ErrInvalidInput},
		{"invalid role", adminID, CreateUserInput{Email: "b@example.com", Password: "long-enough", FullName: "B", Role: "chef"}, ErrInvalidInput},
		{"short password", adminID, CreateUserInput{Email: "b@example.com", Password: "short", FullName: "B", Role: models.RoleWaiter}, ErrInvalidInput},
		{"unknown unit", adminID, CreateUserInput{Email: "b@example.com", Password: "long-enough", FullName: "B", Role: models.RoleWaiter, UnitID: "missing"}, ErrInvalidInput},
		{"duplicate email", adminID, CreateUserInput{Email: "A@example.com", Password: "long-enough", FullName: "Other", Role: models.RoleWaiter}, ErrDuplicateUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tt.id, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAccountService_Kitchen(t *testing.T) {
	svc, db := newTestAccountService(t)
	ctx := context.Background()
	unit := seedUnit(t, db, "Centro")

	profile, err := svc.CreateKitchen(ctx, adminID, CreateKitchenInput{Identifier: "centro", Password: "cozinha-01", UnitID: unit.ID})
	require.NoError(t, err)
	assert.Equal(t, "KITCHEN-centro", profile.FullName)
	assert.Equal(t, models.RoleKitchen, profile.Role)
	assert.Equal(t, "kitchen-centro@ponto-de-fuga.internal", profile.Email)
	require.NotNil(t, profile.UnitID)
	assert.Equal(t, unit.ID, *profile.UnitID)

	session, err := svc.KitchenLogin(ctx, "centro", "cozinha-01")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, session.Profile.ID)

	_, err = svc.CreateKitchen(ctx, adminID, CreateKitchenInput{Identifier: "centro", Password: "cozinha-02", UnitID: unit.ID})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, err = svc.CreateKitchen(ctx, adminID, CreateKitchenInput{Identifier: "bad id!", Password: "cozinha-02", UnitID: unit.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateKitchen(ctx, adminID, CreateKitchenInput{Identifier: "norte", Password: "cozinha-02"})
	assert.ErrorIs(t, err, ErrInvalidInput, "kitchens belong to a unit")
}

func TestAccountService_UpdateAndDelete(t *testing.T) {
	svc, db := newTestAccountService(t)
	ctx := context.Background()
	unit := seedUnit(t, db, "Praia")

	admin, err := svc.CreateUser(ctx, Identity{UserID: "root", Role: models.RoleAdmin}, CreateUserInput{Email: "admin@example.com", Password: "admin-pass", FullName: "Admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	caller := Identity{UserID: admin.ID, Role: models.RoleAdmin}
	waiter, err := svc.CreateUser(ctx, caller, CreateUserInput{Email: "joao@example.com", Password: "joao-pass", FullName: "João", Role: models.RoleWaiter})
	require.NoError(t, err)

	name := "João Silva"
	role := models.RoleKitchen
	updated, err := svc.UpdateUser(ctx, caller, waiter.ID, UpdateUserInput{FullName: &name, Role: &role, UnitID: &unit.ID})
	require.NoError(t, err)
	assert.Equal(t, "João Silva", updated.FullName)
	assert.Equal(t, models.RoleKitchen, updated.Role)
	require.NotNil(t, updated.Unit)
	assert.Equal(t, "Praia", updated.Unit.Name)

	bad := models.Role("owner")
	_, err = svc.UpdateUser(ctx, caller, waiter.ID, UpdateUserInput{Role: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateUser(ctx, caller, "missing", UpdateUserInput{FullName: &name})
	assert.ErrorIs(t, err, ErrProfileNotFound)

	assert.ErrorIs(t, svc.SoftDeleteUser(ctx, caller, admin.ID), ErrCannotDeleteSelf)

	other, err := svc.CreateUser(ctx, caller, CreateUserInput{Email: "admin2@example.com", Password: "admin-pass", FullName: "Admin 2", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.SoftDeleteUser(ctx, caller, other.ID), ErrCannotDeleteAdmin)

	require.NoError(t, svc.SoftDeleteUser(ctx, caller, waiter.ID))
	_, err = svc.Lookup(ctx, waiter.AuthID)
	assert.ErrorIs(t, err, ErrProfileNotFound, "deleted profiles cannot authenticate")
	_, err = svc.Login(ctx, "joao@example.com", "joao-pass")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.CreateUser(ctx, caller, CreateUserInput{Email: "joao@example.com", Password: "joao-pass", FullName: "João", Role: models.RoleWaiter})
	assert.ErrorIs(t, err, ErrDuplicateUser, "soft-deleted emails stay reserved")

	users, err := svc.ListUsers(ctx, caller)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestAccountService_ExternalIdentity(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAccountService(db, nil)
	ctx := context.Background()

	profile, err := svc.CreateUser(ctx, adminID, CreateUserInput{Email: "carla@example.com", FullName: "Carla", Role: models.RoleWaiter})
	require.NoError(t, err, "no password needed with an external provider")

	_, err = svc.Login(ctx, "carla@example.com", "anything")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Lookup(ctx, "auth0|carla")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	linked, err := svc.LinkExternal(ctx, "auth0|carla", "Carla@Example.com")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, linked.ID)
	assert.Equal(t, "auth0|carla", linked.AuthID)

	found, err := svc.Lookup(ctx, "auth0|carla")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, found.ID)

	_, err = svc.LinkExternal(ctx, "auth0|impostor", "carla@example.com")
	assert.ErrorIs(t, err, ErrForbidden, "linked profiles are never rebound")

	_, err = svc.LinkExternal(ctx, "auth0|stranger", "stranger@example.com")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestTokenIssuer_Issue(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, "restaurant-api", "restaurant-web", 12*time.Hour)
	issuer.Now = func() time.Time { return time.Now().UTC().Truncate(time.Second) }

	token, expiresAt, err := issuer.Issue(&models.Profile{AuthID: "user-1", Role: models.RoleKitchen})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), expiresAt, time.Minute)

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithIssuer("restaurant-api"), jwt.WithAudience("restaurant-web"), jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "kitchen", claims.Role)

	_, err = jwt.ParseWithClaims(token, &SessionClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}
