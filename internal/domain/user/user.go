package user

import "errors"

var (
	ErrNotFound  = errors.New("user not found")
	ErrBadWindow = errors.New("invalid list window")
)

// User is one managed account as the users API represents it.
type User struct {
	ID           int64  `json:"id" validate:"gt=0"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	PersonalInfo string `json:"personalInfo"`
}

// Account is a User plus the credential the users API checks at login.
type Account struct {
	User
	PasswordHash string `json:"-"` // never expose hash in JSON
}

type CreateRequest struct {
	Name         string `json:"name" binding:"required,max=120"`
	Email        string `json:"email" binding:"required,email"`
	Role         string `json:"role" binding:"required,max=40"`
	PersonalInfo string `json:"personalInfo" binding:"omitempty,max=2000"`
	Password     string `json:"password,omitempty" binding:"omitempty,min=8"`
}

// UpdateRequest is a partial update: nil fields are left untouched.
type UpdateRequest struct {
	Name         *string `json:"name,omitempty" binding:"omitempty,max=120"`
	Email        *string `json:"email,omitempty" binding:"omitempty,email"`
	Role         *string `json:"role,omitempty" binding:"omitempty,max=40"`
	PersonalInfo *string `json:"personalInfo,omitempty" binding:"omitempty,max=2000"`
}

// Apply returns u with every non-nil field of req copied in.
func (req UpdateRequest) Apply(u User) User {
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.PersonalInfo != nil {
		u.PersonalInfo = *req.PersonalInfo
	}
	return u
}

// Page is one server-paginated slice of the collection plus the full count.
type Page struct {
	Users []User `json:"users" validate:"dive"`
	Total int    `json:"total" validate:"gte=0"`
}

type DeleteResult struct {
	Deleted bool  `json:"deleted"`
	ID      int64 `json:"id"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token" validate:"required"`
	User  *User  `json:"user,omitempty"`
}

// Placeholder is the fixed payload sent by the one-click add action.
func Placeholder() CreateRequest {
	return CreateRequest{
		Name:         "New User",
		Email:        "newuser@example.com",
		Role:         "User",
		PersonalInfo: "New user info",
	}
}
