package domain

import (
	"strconv"
	"time"
)

// ActivityType names an account lifecycle or authentication event.
type ActivityType string

const (
	ActivityLoginSuccess      ActivityType = "login.success"
	ActivityLoginFailure      ActivityType = "login.failure"
	ActivityTokenRefreshed    ActivityType = "token.refreshed"
	ActivityLogout            ActivityType = "logout"
	ActivityBootstrap         ActivityType = "bootstrap.completed"
	ActivityUserCreated       ActivityType = "user.created"
	ActivityUserUpdated       ActivityType = "user.updated"
	ActivityUserDeleted       ActivityType = "user.deleted"
	ActivityUserEnabled       ActivityType = "user.enabled"
	ActivityUserDisabled      ActivityType = "user.disabled"
	ActivityPasswordChanged   ActivityType = "password.changed"
	ActivityRoleCreated       ActivityType = "role.created"
	ActivityRoleDeleted       ActivityType = "role.deleted"
	ActivityAuthorizationDeny ActivityType = "authorization.denied"
)

// ActivityEvent is one entry of the account audit trail.
type ActivityEvent struct {
	Type       ActivityType
	ActorID    *int64 // nil for anonymous (login, bootstrap)
	SubjectID  int64  // user or role id the event is about; 0 when unknown
	Email      string
	Detail     map[string]string
	OccurredAt time.Time
}

// ShardKey keeps a subject's events ordered when they are processed concurrently.
func (e ActivityEvent) ShardKey() string {
	if e.SubjectID != 0 {
		return strconv.FormatInt(e.SubjectID, 10)
	}
	return e.Email
}
