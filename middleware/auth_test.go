package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/config"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/ponto-de-fuga/restaurant-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		setupFunc func(*gin.Context)
		wantID    string
		wantErr   bool
	}{
		{
			name: "successfully extracts user ID",
			setupFunc: func(c *gin.Context) {
				c.Set("user_id", "auth0|123456")
			},
			wantID:  "auth0|123456",
			wantErr: false,
		},
		{
			name: "user ID not found in context",
			setupFunc: func(c *gin.Context) {
				// Don't set user_id
			},
			wantID:  "",
			wantErr: true,
		},
		{
			name: "user ID is not a string",
			setupFunc: func(c *gin.Context) {
				c.Set("user_id", 12345) // Set as int instead of string
			},
			wantID:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.setupFunc(c)

			gotID, err := GetUserID(c)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, gotID)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantID, gotID)
			}
		})
	}
}

func TestAuthError(t *testing.T) {
	err := &AuthError{
		Code:    "TEST_ERROR",
		Message: "This is a test error",
	}

	assert.Equal(t, "This is a test error", err.Error())
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		identity       *services.Identity
		roles          []models.Role
		wantStatusCode int
		wantAborted    bool
	}{
		{
			name:        "role allowed",
			identity:    &services.Identity{UserID: "u1", Role: models.RoleWaiter},
			roles:       []models.Role{models.RoleWaiter, models.RoleAdmin},
			wantAborted: false,
		},
		{
			name:           "role not allowed",
			identity:       &services.Identity{UserID: "u1", Role: models.RoleKitchen},
			roles:          []models.Role{models.RoleWaiter, models.RoleAdmin},
			wantStatusCode: http.StatusForbidden,
			wantAborted:    true,
		},
		{
			name:           "no identity in context",
			roles:          []models.Role{models.RoleAdmin},
			wantStatusCode: http.StatusUnauthorized,
			wantAborted:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.identity != nil {
				SetIdentity(c, *tt.identity)
			}

			RequireRole(tt.roles...)(c)

			assert.Equal(t, tt.wantAborted, c.IsAborted())
			if tt.wantAborted {
				assert.Equal(t, tt.wantStatusCode, w.Code)
			}
		})
	}
}

func TestGetIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, services.Identity{}, GetIdentity(c), "anonymous requests get the zero identity")

	SetIdentity(c, services.Identity{UserID: "u1", Role: models.RoleAdmin})
	assert.Equal(t, "u1", GetIdentity(c).UserID)
}

func testAuthConfig() *config.Config {
	cfg := config.Default()
	cfg.JWTSecret = "middleware-test-secret"
	return cfg
}

func TestEnsureValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testAuthConfig()
	jwtValidator, err := NewTokenValidator(cfg)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/protected", EnsureValidToken(jwtValidator), func(c *gin.Context) {
		userID, err := GetUserID(c)
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	issuer := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, time.Hour)
	valid, _, err := issuer.Issue(&models.Profile{AuthID: "profile-1", Role: models.RoleWaiter})
	require.NoError(t, err)
	wrongAudience, _, err := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, "other-api", time.Hour).
		Issue(&models.Profile{AuthID: "profile-1", Role: models.RoleWaiter})
	require.NoError(t, err)
	wrongSecret, _, err := services.NewTokenIssuer("another-secret", cfg.JWTIssuer, cfg.JWTAudience, time.Hour).
		Issue(&models.Profile{AuthID: "profile-1", Role: models.RoleWaiter})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing token", "", http.StatusUnauthorized},
		{"malformed header", "Token " + valid, http.StatusUnauthorized},
		{"wrong audience", "Bearer " + wrongAudience, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + wrongSecret, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "profile-1", body["user_id"])
			} else {
				assert.Equal(t, false, body["success"])
			}
		})
	}
}

type fakeProfiles struct {
	profiles map[string]*models.Profile
	byEmail  map[string]*models.Profile
}

func (f *fakeProfiles) Lookup(_ context.Context, authID string) (*models.Profile, error) {
	if p, ok := f.profiles[authID]; ok {
		return p, nil
	}
	return nil, services.ErrProfileNotFound
}

func (f *fakeProfiles) LinkExternal(_ context.Context, authID, email string) (*models.Profile, error) {
	p, ok := f.byEmail[email]
	if !ok {
		return nil, services.ErrProfileNotFound
	}
	p.AuthID = authID
	f.profiles[authID] = p
	return p, nil
}

type fakeUserInfo struct {
	info *services.Auth0UserInfo
}

func (f fakeUserInfo) GetUserInfo(context.Context, string) (*services.Auth0UserInfo, error) {
	return f.info, nil
}

func TestLoadIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(profiles ProfileLookup, userInfo services.UserInfoFetcher, subject string) (*httptest.ResponseRecorder, services.Identity) {
		var seen services.Identity
		router := gin.New()
		router.GET("/me",
			func(c *gin.Context) {
				if subject != "" {
					c.Set("user_id", subject)
				}
				c.Next()
			},
			LoadIdentity(profiles, userInfo),
			func(c *gin.Context) {
				seen = GetIdentity(c)
				c.Status(http.StatusNoContent)
			},
		)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer access-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w, seen
	}

	waiter := &models.Profile{Base: models.Base{ID: "p1"}, AuthID: "p1", Email: "w@example.com", Role: models.RoleWaiter}

	t.Run("known subject", func(t *testing.T) {
		profiles := &fakeProfiles{profiles: map[string]*models.Profile{"p1": waiter}}
		w, id := serve(profiles, nil, "p1")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, services.Identity{UserID: "p1", Role: models.RoleWaiter}, id)
	})

	t.Run("unknown subject", func(t *testing.T) {
		profiles := &fakeProfiles{profiles: map[string]*models.Profile{}}
		w, _ := serve(profiles, nil, "ghost")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("no subject", func(t *testing.T) {
		w, _ := serve(&fakeProfiles{}, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("first external login links by verified email", func(t *testing.T) {
		provisioned := &models.Profile{Base: models.Base{ID: "p2"}, AuthID: "p2", Email: "k@example.com", Role: models.RoleKitchen}
		profiles := &fakeProfiles{
			profiles: map[string]*models.Profile{},
			byEmail:  map[string]*models.Profile{"k@example.com": provisioned},
		}
		info := fakeUserInfo{info: &services.Auth0UserInfo{Sub: "auth0|k", Email: "k@example.com", EmailVerified: true}}
		w, id := serve(profiles, info, "auth0|k")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "p2", id.UserID)
		assert.Equal(t, models.RoleKitchen, id.Role)
	})

	t.Run("unverified email is not linked", func(t *testing.T) {
		provisioned := &models.Profile{Base: models.Base{ID: "p3"}, AuthID: "p3", Email: "u@example.com", Role: models.RoleWaiter}
		profiles := &fakeProfiles{
			profiles: map[string]*models.Profile{},
			byEmail:  map[string]*models.Profile{"u@example.com": provisioned},
		}
		info := fakeUserInfo{info: &services.Auth0UserInfo{Sub: "auth0|u", Email: "u@example.com", EmailVerified: false}}
		w, _ := serve(profiles, info, "auth0|u")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestEnsureValidToken_RoleFromProfileStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testAuthConfig()
	jwtValidator, err := NewTokenValidator(cfg)
	require.NoError(t, err)

	stored := &models.Profile{Base: models.Base{ID: "p9"}, AuthID: "p9", Email: "w9@example.com", Role: models.RoleWaiter}
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{"p9": stored}}

	var seen services.Identity
	router := gin.New()
	router.GET("/me", EnsureValidToken(jwtValidator), LoadIdentity(profiles, nil), func(c *gin.Context) {
		seen = GetIdentity(c)
		c.Status(http.StatusNoContent)
	})

	// The token claims admin; the stored profile wins.
	issuer := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, time.Hour)
	token, _, err := issuer.Issue(&models.Profile{AuthID: "p9", Role: models.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, services.Identity{UserID: "p9", Role: models.RoleWaiter}, seen)
}
