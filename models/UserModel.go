package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Roles is the closed set of values accepted for User.Role.
var Roles = []string{RoleUser, RoleAdmin}

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName   string             `bson:"firstName" json:"firstName"`
	LastName    string             `bson:"lastName" json:"lastName"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"`
	Phone       string             `bson:"phone" json:"phone"`
	DateOfBirth time.Time          `bson:"dateOfBirth" json:"dateOfBirth"`
	Role        string             `bson:"role" json:"role"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserPatch holds the updatable user fields. A nil field is left untouched.
type UserPatch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Password    *string
	Phone       *string
	DateOfBirth *time.Time
	Role        *string
	IsActive    *bool
}

// NewUser builds a user from a create patch, filling the defaults.
func NewUser(p UserPatch) *User {
	u := &User{Role: RoleUser, IsActive: true}
	p.Apply(u)
	return u
}

// Apply copies every set field of p onto u.
func (p UserPatch) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.DateOfBirth != nil {
		u.DateOfBirth = *p.DateOfBirth
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
}

// Owner is the public projection of a user embedded in product responses.
type Owner struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	Email     string             `bson:"email" json:"email"`
}
