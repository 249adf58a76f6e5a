package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	kitchenEmailHost  = "ponto-de-fuga.internal"
)

var kitchenIdentifierPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,31}$`)

// Session is a successful login.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   *models.Profile `json:"profile"`
}

// CreateUserInput describes a staff account created by an admin. AuthID is
// only set when tokens come from an external identity provider; otherwise a
// password is required and the profile id doubles as the token subject.
type CreateUserInput struct {
	Email    string
	Password string
	FullName string
	Role     models.Role
	UnitID   string
	AuthID   string
}

// CreateKitchenInput describes a shared kitchen terminal account.
type CreateKitchenInput struct {
	Identifier string
	Password   string
	UnitID     string
}

// UpdateUserInput carries the mutable profile fields; nil leaves a field as is.
type UpdateUserInput struct {
	FullName *string
	Role     *models.Role
	UnitID   *string
}

// AccountService manages staff profiles and password logins.
type AccountService struct {
	db     *gorm.DB
	tokens *TokenIssuer
}

// NewAccountService creates an account service. tokens may be nil when
// bearer tokens are issued by an external provider; password login is then
// unavailable.
func NewAccountService(db *gorm.DB, tokens *TokenIssuer) *AccountService {
	return &AccountService{db: db, tokens: tokens}
}

// Login authenticates a staff member by email and password.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	return s.login(ctx, strings.ToLower(strings.TrimSpace(email)), password)
}

// KitchenLogin authenticates a kitchen terminal by its identifier.
func (s *AccountService) KitchenLogin(ctx context.Context, identifier, password string) (*Session, error) {
	return s.login(ctx, KitchenEmail(identifier), password)
}

func (s *AccountService) login(ctx context.Context, email, password string) (*Session, error) {
	if s.tokens == nil {
		return nil, Errorf(ErrForbidden, "Password login is disabled")
	}
	if email == "" || password == "" {
		return nil, ErrInvalidCredential
	}

	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Warn("Login failed", "email", email, "reason", "unknown email")
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile.PasswordHash == "" {
		return nil, ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		slog.Warn("Login failed", "email", email, "reason", "password mismatch")
		return nil, ErrInvalidCredential
	}

	token, expiresAt, err := s.tokens.Issue(&profile)
	if err != nil {
		return nil, err
	}
	slog.Info("User logged in", "user_id", profile.ID, "role", profile.Role)
	return &Session{Token: token, ExpiresAt: expiresAt, Profile: &profile}, nil
}

// Lookup resolves a token subject to its active profile. Soft-deleted
// profiles are not found.
func (s *AccountService) Lookup(ctx context.Context, authID string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("auth_id = ?", authID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	return &profile, nil
}

// LinkExternal binds an external token subject to the unlinked profile
// provisioned for email. Profiles already bound to another subject are
// never rebound.
func (s *AccountService) LinkExternal(ctx context.Context, authID, email string) (*models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if authID == "" || email == "" {
		return nil, ErrProfileNotFound
	}
	var profile models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return err
		}
		if profile.AuthID == authID {
			return nil
		}
		if profile.AuthID != profile.ID {
			return Errorf(ErrForbidden, "Profile is linked to another identity")
		}
		profile.AuthID = authID
		return tx.Model(&profile).Update("auth_id", authID).Error
	})
	if err != nil {
		return nil, wrapStoreError("link profile", err)
	}
	slog.Info("Linked external identity", "user_id", profile.ID, "auth_id", authID)
	return &profile, nil
}

// Me returns the caller's own profile with its unit.
func (s *AccountService) Me(ctx context.Context, id Identity) (*models.Profile, error) {
	if err := id.Require(models.RoleAdmin, models.RoleWaiter, models.RoleKitchen); err != nil {
		return nil, err
	}
	return s.get(ctx, id.UserID)
}

// ListUsers returns every active profile, admins first.
func (s *AccountService) ListUsers(ctx context.Context, id Identity) ([]models.Profile, error) {
	if err := id.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	var profiles []models.Profile
	if err := s.db.WithContext(ctx).Preload("Unit").Order("role asc, full_name asc").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return profiles, nil
}

// CreateUser provisions a staff profile.
func (s *AccountService) CreateUser(ctx context.Context, id Identity, in CreateUserInput) (*models.Profile, error) {
	if err := id.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Email == "" || in.FullName == "" {
		return nil, Errorf(ErrInvalidInput, "Email and full name are required")
	}
	if !in.Role.Valid() {
		return nil, Errorf(ErrInvalidInput, "Invalid role: %s", in.Role)
	}
	return s.create(ctx, in)
}

// CreateKitchen provisions a kitchen terminal named KITCHEN-<identifier>.
func (s *AccountService) CreateKitchen(ctx context.Context, id Identity, in CreateKitchenInput) (*models.Profile, error) {
	if err := id.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	if !kitchenIdentifierPattern.MatchString(in.Identifier) {
		return nil, Errorf(ErrInvalidInput, "Kitchen identifier must be 1-32 letters, digits, '-' or '_'")
	}
	if strings.TrimSpace(in.UnitID) == "" {
		return nil, Errorf(ErrInvalidInput, "unit_id is required")
	}
	return s.create(ctx, CreateUserInput{
		Email:    KitchenEmail(in.Identifier),
		Password: in.Password,
		FullName: models.KitchenNamePrefix + in.Identifier,
		Role:     models.RoleKitchen,
		UnitID:   in.UnitID,
	})
}

func (s *AccountService) create(ctx context.Context, in CreateUserInput) (*models.Profile, error) {
	profile := models.Profile{
		AuthID:   strings.TrimSpace(in.AuthID),
		Email:    in.Email,
		FullName: in.FullName,
		Role:     in.Role,
	}
	if in.UnitID != "" {
		unitID := in.UnitID
		profile.UnitID = &unitID
	}
	if profile.AuthID == "" && s.tokens != nil {
		if len(in.Password) < minPasswordLength {
			return nil, Errorf(ErrInvalidInput, "Password must be at least %d characters", minPasswordLength)
		}
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		profile.PasswordHash = string(hash)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if profile.UnitID != nil {
			var units int64
			if err := tx.Model(&models.Unit{}).Where("id = ?", *profile.UnitID).Count(&units).Error; err != nil {
				return err
			}
			if units == 0 {
				return Errorf(ErrInvalidInput, "Unit %s does not exist", *profile.UnitID)
			}
		}

		var existing int64
		query := tx.Unscoped().Model(&models.Profile{}).Where("email = ?", profile.Email)
		if profile.Role == models.RoleKitchen {
			query = query.Or("full_name = ?", profile.FullName)
		}
		if profile.AuthID != "" {
			query = query.Or("auth_id = ?", profile.AuthID)
		}
		if err := query.Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateUser
		}

		if profile.AuthID == "" {
			profile.ID = uuid.NewString()
			profile.AuthID = profile.ID
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, wrapStoreError("create user", err)
	}

	slog.Info("User created", "user_id", profile.ID, "role", profile.Role, "unit_id", in.UnitID)
	return &profile, nil
}

// UpdateUser changes a profile's name, role or unit.
func (s *AccountService) UpdateUser(ctx context.Context, id Identity, userID string, in UpdateUserInput) (*models.Profile, error) {
	if err := id.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, Errorf(ErrInvalidInput, "Full name cannot be empty")
		}
		updates["full_name"] = name
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, Errorf(ErrInvalidInput, "Invalid role: %s", *in.Role)
		}
		updates["role"] = *in.Role
	}
	if in.UnitID != nil {
		if *in.UnitID == "" {
			updates["unit_id"] = nil
		} else {
			updates["unit_id"] = *in.UnitID
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		if err := tx.Where("id = ?", userID).First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&profile).Updates(updates).Error
	})
	if err != nil {
		return nil, wrapStoreError("update user", err)
	}

	slog.Info("User updated", "user_id", userID, "by", id.UserID)
	return s.get(ctx, userID)
}

// SoftDeleteUser disables an account. Admins cannot delete themselves or
// another admin.
func (s *AccountService) SoftDeleteUser(ctx context.Context, id Identity, userID string) error {
	if err := id.Require(models.RoleAdmin); err != nil {
		return err
	}
	if userID == id.UserID {
		return ErrCannotDeleteSelf
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		if err := tx.Where("id = ?", userID).First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return err
		}
		if profile.Role == models.RoleAdmin {
			return ErrCannotDeleteAdmin
		}
		return tx.Delete(&profile).Error
	})
	if err != nil {
		return wrapStoreError("delete user", err)
	}

	slog.Info("User soft-deleted", "user_id", userID, "by", id.UserID)
	return nil
}

func (s *AccountService) get(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Preload("Unit").Where("id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

// KitchenEmail is the synthetic login email of a kitchen terminal.
func KitchenEmail(identifier string) string {
	return fmt.Sprintf("kitchen-%s@%s", strings.ToLower(strings.TrimSpace(identifier)), kitchenEmailHost)
}

// isUniqueViolation recognizes duplicate key errors from both PostgreSQL and SQLite.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
