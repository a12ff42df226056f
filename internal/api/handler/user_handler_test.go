package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
)

type stubAccountService struct {
	listUsersFn      func(ctx context.Context, actor *domain.Principal) ([]domain.User, error)
	createUserFn     func(ctx context.Context, actor *domain.Principal, in ports.CreateUserInput) (ports.CreateUserResult, error)
	updateUserFn     func(ctx context.Context, actor *domain.Principal, id int64, in ports.UpdateUserInput) (*domain.User, error)
	deleteUserFn     func(ctx context.Context, actor *domain.Principal, id int64) error
	setEnabledFn     func(ctx context.Context, actor *domain.Principal, id int64, enabled bool) (*domain.User, error)
	changePasswordFn func(ctx context.Context, actor *domain.Principal, current, next, confirmation string) error
	listRolesFn      func(ctx context.Context, actor *domain.Principal) ([]domain.Role, error)
	createRoleFn     func(ctx context.Context, actor *domain.Principal, name string) (*domain.Role, error)
	deleteRoleFn     func(ctx context.Context, actor *domain.Principal, id int64) (bool, error)
}

func (s *stubAccountService) ListUsers(ctx context.Context, actor *domain.Principal) ([]domain.User, error) {
	return s.listUsersFn(ctx, actor)
}

func (s *stubAccountService) CreateUser(ctx context.Context, actor *domain.Principal, in ports.CreateUserInput) (ports.CreateUserResult, error) {
	return s.createUserFn(ctx, actor, in)
}

func (s *stubAccountService) UpdateUser(ctx context.Context, actor *domain.Principal, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateUserFn(ctx, actor, id, in)
}

func (s *stubAccountService) DeleteUser(ctx context.Context, actor *domain.Principal, id int64) error {
	return s.deleteUserFn(ctx, actor, id)
}

func (s *stubAccountService) SetUserEnabled(ctx context.Context, actor *domain.Principal, id int64, enabled bool) (*domain.User, error) {
	return s.setEnabledFn(ctx, actor, id, enabled)
}

func (s *stubAccountService) ChangePassword(ctx context.Context, actor *domain.Principal, current, next, confirmation string) error {
	return s.changePasswordFn(ctx, actor, current, next, confirmation)
}

func (s *stubAccountService) ListRoles(ctx context.Context, actor *domain.Principal) ([]domain.Role, error) {
	return s.listRolesFn(ctx, actor)
}

func (s *stubAccountService) CreateRole(ctx context.Context, actor *domain.Principal, name string) (*domain.Role, error) {
	return s.createRoleFn(ctx, actor, name)
}

func (s *stubAccountService) DeleteRole(ctx context.Context, actor *domain.Principal, id int64) (bool, error) {
	return s.deleteRoleFn(ctx, actor, id)
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestUserHandler_List(t *testing.T) {
	e := echo.New()
	role := domain.Role{ID: 1, Name: "Superuser"}
	accounts := &stubAccountService{
		listUsersFn: func(ctx context.Context, actor *domain.Principal) ([]domain.User, error) {
			if actor == nil || actor.Subject != 1 {
				t.Fatalf("actor not forwarded: %+v", actor)
			}
			return []domain.User{{ID: 1, Email: "a@x.com", HashedPassword: "secret-hash", RoleID: &role.ID, Role: &role}}, nil
		},
	}
	h := NewUserHandler(accounts, &stubAuthService{})

	c, rec := newJSONContext(e, http.MethodGet, "/api/user/", "")
	SetPrincipal(c, &domain.Principal{Subject: 1})

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.Contains(rec.Body.String(), "secret-hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 || resp[0]["email"] != "a@x.com" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if r, ok := resp[0]["role"].(map[string]any); !ok || r["name"] != "Superuser" {
		t.Fatalf("role not joined: %+v", resp[0])
	}
}

func TestUserHandler_Create_Bootstrap(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	accounts := &stubAccountService{
		createUserFn: func(ctx context.Context, actor *domain.Principal, in ports.CreateUserInput) (ports.CreateUserResult, error) {
			if actor != nil {
				t.Fatalf("expected anonymous actor")
			}
			if in.Email != "a@x.com" || in.Password != "pw" || in.PasswordConfirmation != "pw" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return ports.CreateUserResult{User: &domain.User{ID: 1, Email: in.Email}, Bootstrapped: true}, nil
		},
	}
	h := NewUserHandler(accounts, &stubAuthService{})

	c, rec := newJSONContext(e, http.MethodPost, "/api/user/",
		`{"name":"Root","email":"a@x.com","password":"pw","password_confirmation":"pw"}`)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		User   map[string]any    `json:"user"`
		Tokens map[string]string `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Tokens["access_token"] != "acc" {
		t.Fatalf("bootstrap response must carry tokens: %s", rec.Body.String())
	}
}

func TestUserHandler_Create_NoTokensAfterBootstrap(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	accounts := &stubAccountService{
		createUserFn: func(ctx context.Context, actor *domain.Principal, in ports.CreateUserInput) (ports.CreateUserResult, error) {
			return ports.CreateUserResult{User: &domain.User{ID: 2, Email: in.Email}}, nil
		},
	}
	h := NewUserHandler(accounts, &stubAuthService{})

	c, rec := newJSONContext(e, http.MethodPost, "/api/user/",
		`{"name":"B","email":"b@x.com","password":"pw","password_confirmation":"pw"}`)
	SetPrincipal(c, &domain.Principal{Subject: 1, Role: "Superuser"})

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.Contains(rec.Body.String(), "tokens") {
		t.Fatalf("tokens only accompany bootstrap: %s", rec.Body.String())
	}
}

func TestUserHandler_Create_Validation(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	accounts := &stubAccountService{
		createUserFn: func(context.Context, *domain.Principal, ports.CreateUserInput) (ports.CreateUserResult, error) {
			t.Fatalf("should not be called")
			return ports.CreateUserResult{}, nil
		},
	}
	h := NewUserHandler(accounts, &stubAuthService{})

	c, _ := newJSONContext(e, http.MethodPost, "/api/user/", `{"name":"B","email":"not-an-email","password":"pw"}`)
	err := h.Create(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "email must be a valid email") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestUserHandler_Update_BadID(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	h := NewUserHandler(&stubAccountService{}, &stubAuthService{})

	c, _ := newJSONContext(e, http.MethodPatch, "/api/user/abc", `{"name":"x","email":"x@x.com"}`)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	err := h.Update(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestUserHandler_SetEnabled(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	accounts := &stubAccountService{
		setEnabledFn: func(ctx context.Context, actor *domain.Principal, id int64, enabled bool) (*domain.User, error) {
			if id != 5 || enabled {
				t.Fatalf("unexpected args: %d %v", id, enabled)
			}
			return &domain.User{ID: id, Enabled: enabled}, nil
		},
	}
	h := NewUserHandler(accounts, &stubAuthService{})

	c, rec := newJSONContext(e, http.MethodPatch, "/api/user/5/enabled", `{"enabled":false}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	SetPrincipal(c, &domain.Principal{Subject: 1})

	if err := h.SetEnabled(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = newJSONContext(e, http.MethodPatch, "/api/user/5/enabled", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	if err := h.SetEnabled(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing flag, got %v", err)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	e := echo.New()
	accounts := &stubAccountService{
		deleteUserFn: func(ctx context.Context, actor *domain.Principal, id int64) error {
			if id == 9 {
				return domain.ErrUserNotFound
			}
			return nil
		},
	}
	h := NewUserHandler(accounts, &stubAuthService{})

	c, rec := newJSONContext(e, http.MethodDelete, "/api/user/3", "")
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	c, _ = newJSONContext(e, http.MethodDelete, "/api/user/9", "")
	c.SetParamNames("id")
	c.SetParamValues("9")
	if err := h.Delete(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserHandler_Update_RoleIntent(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	var got ports.UpdateUserInput
	accounts := &stubAccountService{
		updateUserFn: func(_ context.Context, _ *domain.Principal, id int64, in ports.UpdateUserInput) (*domain.User, error) {
			got = in
			return &domain.User{ID: id, Name: in.Name, Email: in.Email}, nil
		},
	}
	h := NewUserHandler(accounts, &stubAuthService{})

	cases := []struct {
		body      string
		wantRole  bool
		wantClear bool
	}{
		{`{"name":"x","email":"x@x.com"}`, false, false},
		{`{"name":"x","email":"x@x.com","role_id":2}`, true, false},
		{`{"name":"x","email":"x@x.com","clear_role":true}`, false, true},
	}
	for _, tc := range cases {
		got = ports.UpdateUserInput{}
		c, rec := newJSONContext(e, http.MethodPatch, "/api/user/5", tc.body)
		c.SetParamNames("id")
		c.SetParamValues("5")

		if err := h.Update(c); err != nil {
			t.Fatalf("%s: handler error: %v", tc.body, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.body, rec.Code)
		}
		if (got.RoleID != nil) != tc.wantRole || got.ClearRole != tc.wantClear {
			t.Fatalf("%s: unexpected input %+v", tc.body, got)
		}
	}
}

func TestUserHandler_Create_ForwardsChangePwd(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	accounts := &stubAccountService{
		createUserFn: func(_ context.Context, _ *domain.Principal, in ports.CreateUserInput) (ports.CreateUserResult, error) {
			if !in.ChangePassword {
				t.Fatalf("change_pwd not forwarded: %+v", in)
			}
			return ports.CreateUserResult{User: &domain.User{ID: 2, Email: in.Email, ChangePassword: true}}, nil
		},
	}
	h := NewUserHandler(accounts, &stubAuthService{})

	c, rec := newJSONContext(e, http.MethodPost, "/api/user/",
		`{"name":"B","email":"b@x.com","password":"pw","password_confirmation":"pw","change_pwd":true}`)
	SetPrincipal(c, &domain.Principal{Subject: 1, Role: "Superuser"})

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"change_pwd":true`) {
		t.Fatalf("response must echo change_pwd: %s", rec.Body.String())
	}
}

func TestUserHandler_Create_ConfirmationMismatch(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	accounts := &stubAccountService{
		createUserFn: func(context.Context, *domain.Principal, ports.CreateUserInput) (ports.CreateUserResult, error) {
			t.Fatalf("should not be called")
			return ports.CreateUserResult{}, nil
		},
	}
	h := NewUserHandler(accounts, &stubAuthService{})

	c, _ := newJSONContext(e, http.MethodPost, "/api/user/",
		`{"name":"B","email":"b@x.com","password":"pw","password_confirmation":"wp"}`)
	err := h.Create(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "password_confirmation must match password") {
		t.Fatalf("unexpected message: %v", err)
	}
}
