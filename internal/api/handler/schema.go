package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

type changePasswordRequest struct {
	CurrentPassword      string `json:"current_password"          validate:"required"`
	NewPassword          string `json:"new_password"              validate:"required,max=72"`
	PasswordConfirmation string `json:"new_password_confirmation" validate:"required,eqfield=NewPassword"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
}

type principalResponse struct {
	Sub            int64   `json:"sub"`
	UserName       string  `json:"user_name"`
	Organization   string  `json:"organization"`
	OrgID          int64   `json:"orgid"`
	Role           string  `json:"role"`
	AcceptedTC     *bool   `json:"accepted_tc"`
	Impersonated   bool    `json:"impersonated"`
	ImpersonatedBy *string `json:"impersonated_by"`
}

// --- Users ---

type createUserRequest struct {
	Name                 string `json:"name"                  validate:"required"`
	Email                string `json:"email"                 validate:"required,email"`
	Password             string `json:"password"              validate:"required,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	RoleID               *int64 `json:"role_id"`
	Enabled              *bool  `json:"enabled"`
	ChangePwd            bool   `json:"change_pwd"`
}

// updateUserRequest leaves the role untouched when role_id is omitted.
type updateUserRequest struct {
	Name      string `json:"name"       validate:"required"`
	Email     string `json:"email"      validate:"required,email"`
	RoleID    *int64 `json:"role_id"`
	ClearRole bool   `json:"clear_role"`
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type roleRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type userResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Enabled      bool       `json:"enabled"`
	ChangePwd    bool       `json:"change_pwd"`
	RoleID       *int64     `json:"role_id"`
	Role         *roleRef   `json:"role"`
	LastLogin    *time.Time `json:"last_login"`
	PwdUpdatedOn *time.Time `json:"pwd_updated_on"`
	CreatedBy    *int64     `json:"created_by"`
	CreatedOn    time.Time  `json:"created_on"`
	ModifiedBy   *int64     `json:"modified_by"`
	ModifiedOn   *time.Time `json:"modified_on"`
}

type createUserResponse struct {
	User   userResponse   `json:"user"`
	Tokens *tokenResponse `json:"tokens,omitempty"`
}

// --- Roles ---

type createRoleRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

type roleResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AdminTier bool   `json:"admin_tier"`
}

type deleteRoleResponse struct {
	Deleted bool `json:"deleted"`
}
