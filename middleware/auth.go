package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/config"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/ponto-de-fuga/restaurant-api/services"
)

const (
	userIDKey   = "user_id"
	identityKey = "identity"
)

// NewTokenValidator builds the bearer token validator: RS256 against the
// Auth0 JWKS when AUTH0_DOMAIN is set, HS256 with JWT_SECRET otherwise.
func NewTokenValidator(cfg *config.Config) (*validator.Validator, error) {
	if cfg.UsesAuth0() {
		issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
		if err != nil {
			return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
		}
		provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
		return validator.New(
			provider.KeyFunc,
			validator.RS256,
			issuerURL.String(),
			[]string{cfg.Auth0Audience},
			validator.WithAllowedClockSkew(time.Minute),
		)
	}

	secret := []byte(cfg.JWTSecret)
	return validator.New(
		func(context.Context) (interface{}, error) { return secret, nil },
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithAllowedClockSkew(time.Minute),
	)
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
func EnsureValidToken(jwtValidator *validator.Validator) gin.HandlerFunc {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Warn("Encountered error while validating JWT", "path", r.URL.Path, "error", err)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`)); writeErr != nil {
			slog.Error("Failed to write error response", "error", writeErr)
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		validated := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			c.Set(userIDKey, token.RegisteredClaims.Subject)
			c.Request = r
			validated = true

			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !validated {
			c.Abort()
		}
	}
}

// ProfileLookup resolves token subjects to staff profiles.
type ProfileLookup interface {
	Lookup(ctx context.Context, authID string) (*models.Profile, error)
	LinkExternal(ctx context.Context, authID, email string) (*models.Profile, error)
}

// LoadIdentity turns the token subject into a request Identity using the
// stored role. Deleted profiles are rejected. When userInfo is set, a
// subject seen for the first time is linked to the profile provisioned for
// its email.
func LoadIdentity(profiles ProfileLookup, userInfo services.UserInfoFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := GetUserID(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		ctx := c.Request.Context()
		profile, err := profiles.Lookup(ctx, subject)
		if errors.Is(err, services.ErrProfileNotFound) && userInfo != nil {
			profile, err = linkFromUserInfo(c, profiles, userInfo, subject)
		}
		if err != nil {
			if errors.Is(err, services.ErrProfileNotFound) || services.KindOf(err) == services.KindForbidden {
				slog.Warn("Rejected token without active profile", "subject", subject, "error", err)
				abortWithError(c, http.StatusForbidden, "PROFILE_NOT_FOUND", "No active staff profile for this account")
				return
			}
			slog.Error("Failed to load identity", "subject", subject, "error", err)
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user profile")
			return
		}

		c.Set(identityKey, services.Identity{UserID: profile.ID, Role: profile.Role})
		c.Next()
	}
}

func linkFromUserInfo(c *gin.Context, profiles ProfileLookup, userInfo services.UserInfoFetcher, subject string) (*models.Profile, error) {
	accessToken := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	info, err := userInfo.GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		return nil, err
	}
	if info.Sub != subject || !info.EmailVerified {
		return nil, services.ErrProfileNotFound
	}
	return profiles.LinkExternal(c.Request.Context(), subject, info.Email)
}

// RequireRole aborts unless the request identity holds one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := GetIdentity(c).Require(roles...)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, services.ErrUnauthorized):
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		default:
			abortWithError(c, http.StatusForbidden, "INSUFFICIENT_ROLE", "Insufficient permissions to access this resource")
		}
	}
}

// GetIdentity returns the identity set by LoadIdentity, or the zero
// Identity for anonymous requests.
func GetIdentity(c *gin.Context) services.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(services.Identity); ok {
			return id
		}
	}
	return services.Identity{}
}

// SetIdentity stores id on the request (used by tests and trusted callers).
func SetIdentity(c *gin.Context, id services.Identity) {
	c.Set(identityKey, id)
}

// GetUserID extracts the token subject from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
