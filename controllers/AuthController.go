package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"catalog-api/database"
	"catalog-api/helpers"
	"catalog-api/middleware"
	"catalog-api/models"
	"catalog-api/validation"
)

// AuthController serves registration, login and the caller's own account.
type AuthController struct {
	users  database.UserStore
	gate   *validation.Gate
	creds  *helpers.Credentials
	cookie helpers.CookieOptions
}

func NewAuthController(users database.UserStore, gate *validation.Gate, creds *helpers.Credentials, cookie helpers.CookieOptions) *AuthController {
	return &AuthController{users: users, gate: gate, creds: creds, cookie: cookie}
}

type session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (ac *AuthController) Register(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	patch, err := ac.gate.User(fields, validation.Create)
	if err != nil {
		helpers.Fail(c, err)
		return
	}
	patch.Role, patch.IsActive = nil, nil

	user, err := createUser(c, ac.users, ac.creds, patch)
	if err != nil {
		if helpers.KindOf(err) == helpers.KindConflict {
			err = helpers.Conflict("User with this email already exists")
		}
		helpers.Fail(c, err)
		return
	}
	ac.issue(c, user, func(s session) {
		helpers.Created(c, "User registered successfully", s)
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Email) == "" || body.Password == "" {
		helpers.Fail(c, helpers.BadRequest("Email and password are required"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	user, err := ac.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(body.Email)))
	if err != nil {
		if database.KindOf(err) == database.KindNotFound {
			helpers.Fail(c, helpers.Unauthorized("Invalid email or password"))
			return
		}
		helpers.Fail(c, helpers.Internal("Error during login", err))
		return
	}
	if !user.IsActive {
		helpers.Fail(c, helpers.Unauthorized("Account is deactivated"))
		return
	}
	if !ac.creds.VerifyPassword(user.Password, body.Password) {
		helpers.Fail(c, helpers.Unauthorized("Invalid email or password"))
		return
	}
	ac.issue(c, user, func(s session) {
		helpers.OK(c, "Login successful", s)
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	helpers.NullifyAuthCookie(c, ac.cookie)
	helpers.OK(c, "Logged out successfully", nil)
}

func (ac *AuthController) Profile(c *gin.Context) {
	helpers.OK(c, "", middleware.Caller(c))
}

// UpdateProfile accepts only the personal fields; email, password, role and
// status are ignored.
func (ac *AuthController) UpdateProfile(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	patch, err := ac.gate.Profile(fields)
	if err != nil {
		helpers.Fail(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	user, err := ac.users.Update(ctx, middleware.Caller(c).ID.Hex(), patch)
	if err != nil {
		helpers.Fail(c, userResource.storeError(err, "Error updating profile"))
		return
	}
	helpers.OK(c, "Profile updated successfully", user)
}

func (ac *AuthController) ChangePassword(c *gin.Context) {
	var body changePasswordRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.CurrentPassword == "" || body.NewPassword == "" {
		helpers.Fail(c, helpers.BadRequest("Current password and new password are required"))
		return
	}
	caller := middleware.Caller(c)
	if !ac.creds.VerifyPassword(caller.Password, body.CurrentPassword) {
		helpers.Fail(c, helpers.BadRequest("Current password is incorrect"))
		return
	}
	if _, f := validation.Password("newPassword", body.NewPassword); f != nil {
		helpers.Fail(c, validation.Failures{*f})
		return
	}
	hashed, err := ac.creds.HashPassword(body.NewPassword)
	if err != nil {
		helpers.Fail(c, helpers.Internal("Error changing password", err))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	if _, err := ac.users.Update(ctx, caller.ID.Hex(), models.UserPatch{Password: &hashed}); err != nil {
		helpers.Fail(c, userResource.storeError(err, "Error changing password"))
		return
	}
	helpers.OK(c, "Password changed successfully", nil)
}

// Deactivate switches the caller's account off and clears the auth cookie.
// The account and its products are kept.
func (ac *AuthController) Deactivate(c *gin.Context) {
	inactive := false
	ctx, cancel := requestContext(c)
	defer cancel()
	if _, err := ac.users.Update(ctx, middleware.Caller(c).ID.Hex(), models.UserPatch{IsActive: &inactive}); err != nil {
		helpers.Fail(c, userResource.storeError(err, "Error deactivating account"))
		return
	}
	helpers.NullifyAuthCookie(c, ac.cookie)
	helpers.OK(c, "Account deactivated successfully", nil)
}

// issue signs a token for user, sets the auth cookie and hands the session
// to respond.
func (ac *AuthController) issue(c *gin.Context, user *models.User, respond func(session)) {
	token, err := ac.creds.GenerateToken(user.ID.Hex())
	if err != nil {
		helpers.Fail(c, helpers.Internal("Error generating token", err))
		return
	}
	helpers.SetAuthCookie(c, token, ac.cookie)
	respond(session{User: user, Token: token})
}
