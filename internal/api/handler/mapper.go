package handler

import (
	"github.com/emphasys/identity/internal/core/domain"
)

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Enabled:      u.Enabled,
		ChangePwd:    u.ChangePassword,
		RoleID:       u.RoleID,
		LastLogin:    u.LastLogin,
		PwdUpdatedOn: u.PasswordSetOn,
		CreatedBy:    u.CreatedBy,
		CreatedOn:    u.CreatedOn,
		ModifiedBy:   u.ModifiedBy,
		ModifiedOn:   u.ModifiedOn,
	}
	if u.Role != nil {
		resp.Role = &roleRef{ID: u.Role.ID, Name: u.Role.Name}
	}
	return resp
}

func toUserResponses(users []domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out
}

func toRoleResponse(r domain.Role) roleResponse {
	return roleResponse{ID: r.ID, Name: r.Name, AdminTier: r.AdminTier}
}

func toRoleResponses(roles []domain.Role) []roleResponse {
	out := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRoleResponse(r))
	}
	return out
}

func toTokenResponse(p domain.TokenPair) tokenResponse {
	return tokenResponse{AccessToken: p.AccessToken, TokenType: p.TokenType, RefreshToken: p.RefreshToken}
}

func toPrincipalResponse(p *domain.Principal) principalResponse {
	return principalResponse{
		Sub:            p.Subject,
		UserName:       p.UserName,
		Organization:   p.Organization,
		OrgID:          p.OrgID,
		Role:           p.Role,
		AcceptedTC:     p.AcceptedTC,
		Impersonated:   p.Impersonated,
		ImpersonatedBy: p.ImpersonatedBy,
	}
}
