package endpoints

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/db"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/api/admin/auth/packets"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

// AuthPublicModule mounts public auth endpoints (/auth/signup, /auth/login)
func AuthPublicModule(jwtSecret string, store db.Store) api.Module {
	ctl := newAccountManager(jwtSecret, store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth/signup", ctl.userSignup)
		c.PUBLIC_POST("/auth/login", ctl.userLogin)
	})
}

// AuthSessionModule mounts private session/profile endpoints (JWT required)
func AuthSessionModule(jwtSecret string, store db.Store) api.Module {
	ctl := newAccountManager(jwtSecret, store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/auth/current_profile", ctl.getCurrentProfile)
		c.PUT("/auth/current_profile", ctl.updateCurrentProfile)
	})
}

type AccountManager struct {
	jwtSecret string
	store     db.Store
}

func newAccountManager(secret string, store db.Store) *AccountManager {
	return &AccountManager{jwtSecret: secret, store: store}
}

var nonCodeChars = regexp.MustCompile(`[^A-Z0-9]`)

// deriveCode builds a display code from the masjid name plus a short random suffix.
func deriveCode(name string) string {
	base := nonCodeChars.ReplaceAllString(strings.ToUpper(name), "")
	if len(base) > 8 {
		base = base[:8]
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return base + suffix
}

// POST /api/admin/auth/signup
func (a *AccountManager) userSignup(ctx *gin.Context) (any, *api.APIError) {
	var request packets.SignupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	request.Email = model.NormalizeEmail(request.Email)
	rctx := ctx.Request.Context()

	if existing, _ := a.store.GetUserByEmail(rctx, request.Email); existing != nil {
		log.Warn().Str("email", request.Email).Msg("signup email already registered")
		return nil, &api.APIError{Code: http.StatusConflict, Message: "email already registered"}
	}

	code := strings.ToUpper(request.MasjidCode)
	if code == "" {
		code = deriveCode(request.MasjidName)
	}
	if _, err := a.store.GetMasjidByCode(rctx, code); err == nil {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "masjid code already in use"}
	}

	hashed, err := middleware.HashPassword(request.Password)
	if err != nil {
		return nil, api.Internal("could not hash password")
	}

	userID, err := a.store.CreateUser(rctx, request.Email, hashed, request.Name)
	if err != nil {
		return nil, api.FromStoreError(err, "could not create user")
	}

	masjid, err := a.store.CreateMasjid(rctx, userID, request.MasjidName, code)
	if err != nil {
		log.Error().Err(err).Int("user_id", userID).Str("code", code).Msg("signup could not create masjid")
		return nil, api.FromStoreError(err, "could not create masjid")
	}
	if _, err := a.store.SaveSettings(rctx, model.DefaultSettings(masjid.ID)); err != nil {
		return nil, api.Internal("could not initialize settings")
	}

	token, err := middleware.GenerateJWT(userID, a.jwtSecret)
	if err != nil {
		return nil, api.Internal("could not generate token")
	}

	log.Info().Int("user_id", userID).Str("code", masjid.Code).Msg("new masjid registered")
	return api.Created(packets.TokenResponse{Token: token, MasjidCode: masjid.Code}), nil
}

// POST /api/admin/auth/login
func (a *AccountManager) userLogin(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	request.Email = model.NormalizeEmail(request.Email)
	rctx := ctx.Request.Context()

	foundUser, err := a.store.GetUserByEmail(rctx, request.Email)
	if err != nil || foundUser == nil || !middleware.CheckPassword(foundUser.HashedPassword, request.Password) {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}

	token, err := middleware.GenerateJWT(foundUser.ID, a.jwtSecret)
	if err != nil {
		return nil, api.Internal("could not generate token")
	}

	resp := packets.TokenResponse{Token: token}
	if m, err := a.store.GetMasjidByOwner(rctx, foundUser.ID); err == nil {
		resp.MasjidCode = m.Code
	} else if !errs.IsNotFound(err) {
		log.Warn().Err(err).Int("user_id", foundUser.ID).Msg("login could not load masjid")
	}
	return resp, nil
}

func profileResponse(u *model.User) packets.ProfileResponse {
	return packets.ProfileResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

// GET /api/admin/auth/current_profile
func (a *AccountManager) getCurrentProfile(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return profileResponse(user), nil
}

// PUT /api/admin/auth/current_profile
func (a *AccountManager) updateCurrentProfile(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.UpdateCurrentProfileRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	request.Email = model.NormalizeEmail(request.Email)
	rctx := ctx.Request.Context()

	if request.Email != user.Email {
		if other, _ := a.store.GetUserByEmail(rctx, request.Email); other != nil {
			return nil, &api.APIError{Code: http.StatusConflict, Message: "email already in use"}
		}
	}

	if err := a.store.UpdateUserProfile(rctx, user.ID, request.Email, request.Name); err != nil {
		return nil, api.Internal("could not update profile")
	}

	updated, err := a.store.GetUserByID(rctx, user.ID)
	if err != nil {
		return nil, api.Internal("could not fetch updated profile")
	}

	return profileResponse(updated), nil
}
