package controllers

import (
	"github.com/gin-gonic/gin"

	"catalog-api/database"
	"catalog-api/helpers"
	"catalog-api/middleware"
	"catalog-api/models"
	"catalog-api/query"
	"catalog-api/validation"
)

type UserController struct {
	users database.UserStore
	gate  *validation.Gate
	creds *helpers.Credentials
}

func NewUserController(users database.UserStore, gate *validation.Gate, creds *helpers.Credentials) *UserController {
	return &UserController{users: users, gate: gate, creds: creds}
}

func (uc *UserController) List(c *gin.Context) {
	q, err := query.Users.ParseList(c.Request.URL.Query())
	if err != nil {
		helpers.Fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	users, total, err := uc.users.List(ctx, q)
	if err != nil {
		helpers.Fail(c, helpers.Internal("Error fetching users", err))
		return
	}
	helpers.Page(c, users, q.Pagination(total), nil)
}

func (uc *UserController) Search(c *gin.Context) {
	q, err := query.Users.Parse(c.Request.URL.Query())
	if err != nil {
		helpers.Fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	users, total, err := uc.users.List(ctx, q)
	if err != nil {
		helpers.Fail(c, helpers.Internal("Error searching users", err))
		return
	}
	helpers.Page(c, users, q.Pagination(total), func(e *helpers.Envelope) {
		e.SearchQuery = q.Echo()
	})
}

func (uc *UserController) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := uc.users.FindByID(ctx, c.Param("id"))
	if err != nil {
		helpers.Fail(c, userResource.storeError(err, "Error fetching user"))
		return
	}
	helpers.OK(c, "", user)
}

// Create registers a user without issuing a token. Role and status always
// take their defaults here.
func (uc *UserController) Create(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	patch, err := uc.gate.User(fields, validation.Create)
	if err != nil {
		helpers.Fail(c, err)
		return
	}
	patch.Role, patch.IsActive = nil, nil

	user, err := createUser(c, uc.users, uc.creds, patch)
	if err != nil {
		helpers.Fail(c, err)
		return
	}
	helpers.Created(c, "User created successfully", user)
}

func (uc *UserController) Update(c *gin.Context) {
	id := c.Param("id")
	caller := middleware.Caller(c)
	if caller.ID.Hex() != id && !caller.IsAdmin() {
		helpers.Fail(c, helpers.Forbidden("You can only modify your own account"))
		return
	}
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	patch, err := uc.gate.User(fields, validation.Update)
	if err != nil {
		helpers.Fail(c, err)
		return
	}
	if (patch.Role != nil || patch.IsActive != nil) && !caller.IsAdmin() {
		helpers.Fail(c, helpers.Forbidden("Only admins can change role or account status"))
		return
	}
	if patch.Password != nil {
		hashed, err := uc.creds.HashPassword(*patch.Password)
		if err != nil {
			helpers.Fail(c, helpers.Internal("Error updating user", err))
			return
		}
		patch.Password = &hashed
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	user, err := uc.users.Update(ctx, id, patch)
	if err != nil {
		helpers.Fail(c, userResource.storeError(err, "Error updating user"))
		return
	}
	helpers.OK(c, "User updated successfully", user)
}

// Delete removes the user. Products created by the user keep their reference.
func (uc *UserController) Delete(c *gin.Context) {
	id := c.Param("id")
	caller := middleware.Caller(c)
	if caller.ID.Hex() != id && !caller.IsAdmin() {
		helpers.Fail(c, helpers.Forbidden("You can only delete your own account"))
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := uc.users.Delete(ctx, id); err != nil {
		helpers.Fail(c, userResource.storeError(err, "Error deleting user"))
		return
	}
	helpers.OK(c, "User deleted successfully", nil)
}

// createUser hashes the password and stores a new user built from patch.
func createUser(c *gin.Context, users database.UserStore, creds *helpers.Credentials, patch models.UserPatch) (*models.User, error) {
	hashed, err := creds.HashPassword(*patch.Password)
	if err != nil {
		return nil, helpers.Internal("Error creating user", err)
	}
	patch.Password = &hashed
	user := models.NewUser(patch)

	ctx, cancel := requestContext(c)
	defer cancel()
	if err := users.Create(ctx, user); err != nil {
		return nil, userResource.storeError(err, "Error creating user")
	}
	return user, nil
}
