package enums

import "fmt"

// AuditAction is the kind of event captured in an audit record.
type AuditAction string

const (
	AuditActionLogin       AuditAction = "LOGIN"
	AuditActionLogout      AuditAction = "LOGOUT"
	AuditActionLoginFailed AuditAction = "LOGIN_FAILED"
	AuditActionCreate      AuditAction = "CREATE"
	AuditActionUpdate      AuditAction = "UPDATE"
	AuditActionDelete      AuditAction = "DELETE"
	AuditActionView        AuditAction = "VIEW"
)

var validAuditActions = []AuditAction{
	AuditActionLogin,
	AuditActionLogout,
	AuditActionLoginFailed,
	AuditActionCreate,
	AuditActionUpdate,
	AuditActionDelete,
	AuditActionView,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
