package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"blakwhyte-backend/auth"
	"blakwhyte-backend/models"
	"blakwhyte-backend/store"
	"blakwhyte-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthController issues and revokes admin session tokens.
type AuthController struct {
	Store        *store.Store
	Issuer       *auth.Issuer
	Sessions     *auth.Sessions
	TokenTTL     time.Duration
	SecureCookie bool

	// Reserved reports emails that only provisioning may create accounts
	// for. Self-registration refuses them.
	Reserved func(email string) bool
	Log      *zap.Logger
}

func (ac *AuthController) setSession(c *gin.Context, account *models.Account) (string, *auth.Claims, bool) {
	token, claims, err := ac.Issuer.Issue(account.ID.String(), account.Email, account.Name)
	if err != nil {
		ac.Log.Error("failed to issue token", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return "", nil, false
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(ac.TokenTTL.Seconds()), "/", "", ac.SecureCookie, true)
	return token, claims, true
}

func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if ac.Reserved != nil && ac.Reserved(input.Email) {
		utils.RespondWithError(c, http.StatusForbidden, "This email cannot be registered")
		return
	}

	ctx := c.Request.Context()
	if _, err := ac.Store.AccountByEmail(ctx, input.Email); err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		storeError(c, err, "Account not found")
		return
	}

	account := models.Account{
		Email:    input.Email,
		Name:     strings.TrimSpace(input.Name),
		Password: input.Password, // hashed in BeforeCreate
		IsActive: true,
	}
	if err := ac.Store.CreateAccount(ctx, &account); err != nil {
		ac.Log.Error("failed to create account", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, claims, ok := ac.setSession(c, &account)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user": gin.H{
			"id":      account.ID,
			"email":   account.Email,
			"name":    account.Name,
			"isAdmin": claims.Admin,
		},
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx := c.Request.Context()
	account, err := ac.Store.AccountByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			storeError(c, err, "Invalid credentials")
		}
		return
	}
	if !utils.CheckPasswordHash(input.Password, account.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, claims, ok := ac.setSession(c, account)
	if !ok {
		return
	}
	if err := ac.Store.TouchLogin(ctx, account.ID, time.Now()); err != nil {
		ac.Log.Warn("failed to record login", zap.String("account_id", account.ID.String()), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": claims.ExpiresAt.Time,
		"user": gin.H{
			"id":      account.ID,
			"email":   account.Email,
			"name":    account.Name,
			"isAdmin": claims.Admin,
		},
	})
}

// Me reports the caller's authorization state. It never fails for a
// missing or bad credential; the state says Denied instead.
func (ac *AuthController) Me(c *gin.Context) {
	st := ac.Sessions.Resolve(c.Request.Context(), auth.CredentialFromRequest(c))
	body := gin.H{
		"status":          st.Status.String(),
		"isAuthenticated": st.IsAuthenticated,
		"isAdmin":         st.IsAdmin,
	}
	if st.IsAuthenticated {
		body["user"] = gin.H{
			"id":    st.Subject,
			"email": st.Email,
			"name":  st.Name,
		}
		body["expiresAt"] = st.ExpiresAt
	}
	if st.Status == auth.Error {
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (ac *AuthController) Logout(c *gin.Context) {
	if cred := auth.CredentialFromRequest(c); cred != "" {
		ac.Sessions.SignOut(c.Request.Context(), cred)
	}
	c.SetCookie(auth.CookieName, "", -1, "/", "", ac.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out", "redirect": auth.LoginPath})
}
