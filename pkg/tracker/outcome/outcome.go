// Package outcome holds the symbolic results of authorization and lifecycle
// operations. Nothing here is localized; see package locale.
package outcome

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Reason is a business denial.
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonNotAffiliated          Reason = "NOT_AFFILIATED"
	ReasonUnknownUser            Reason = "UNKNOWN_USER"
	ReasonUnknownOrganization    Reason = "UNKNOWN_ORGANIZATION"
	ReasonUserNotInOrganization  Reason = "USER_NOT_IN_ORGANIZATION"
	ReasonSelfModification       Reason = "SELF_MODIFICATION"
	ReasonInsufficientPermission Reason = "INSUFFICIENT_PERMISSION"
	ReasonCannotLowerSuperAdmin  Reason = "CANNOT_LOWER_SUPER_ADMIN"
	ReasonPermissionDenied       Reason = "PERMISSION_DENIED"
)

// Code returns the status code reported with the denial.
func (r Reason) Code() int {
	switch r {
	case ReasonInsufficientPermission, ReasonCannotLowerSuperAdmin, ReasonPermissionDenied:
		return http.StatusForbidden
	}
	return http.StatusBadRequest
}

// Detail refines a PERMISSION_DENIED reason.
type Detail string

const (
	DetailNone                       Detail = ""
	DetailVerifiedRequiresSuperAdmin Detail = "VERIFIED_REQUIRES_SUPER_ADMIN"
	DetailNoStanding                 Detail = "NO_STANDING"
)

// Status identifies a successful operation.
type Status string

const (
	StatusLeftOrganization    Status = "LEFT_ORGANIZATION"
	StatusRemovedOrganization Status = "REMOVED_ORGANIZATION"
	StatusUpdatedRole         Status = "UPDATED_ROLE"
)

// Result is either a success status with its payload or a typed denial.
type Result struct {
	OK     bool
	Status Status
	Reason Reason
	Detail Detail
	Code   int

	// OrgNames maps locale to organization name for the affected organization.
	OrgNames   map[string]string
	Username   string
	Permission string
}

// Succeeded builds a successful result.
func Succeeded(status Status, orgNames map[string]string) Result {
	return Result{OK: true, Status: status, Code: http.StatusOK, OrgNames: orgNames}
}

// Denied builds a denial.
func Denied(reason Reason) Result {
	return Result{Reason: reason, Code: reason.Code()}
}

// DeniedWith builds a denial carrying a detail.
func DeniedWith(reason Reason, detail Detail) Result {
	r := Denied(reason)
	r.Detail = detail
	return r
}

// Operation names a lifecycle or role operation.
type Operation string

const (
	OpLeaveOrganization  Operation = "leave_organization"
	OpRemoveOrganization Operation = "remove_organization"
	OpUpdateUserRole     Operation = "update_user_role"
)

// ErrRetryable marks infrastructure failures the caller may retry.
var ErrRetryable = errors.New("operation failed, please try again")

// Failure is an infrastructure failure of an operation. Phase records where
// it happened and is meant for logs only.
type Failure struct {
	Op    Operation
	Phase string
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed during %s: %v", f.Op, f.Phase, f.Err)
}

// Unwrap exposes ErrRetryable and the underlying cause.
func (f *Failure) Unwrap() []error {
	return []error{ErrRetryable, f.Err}
}

// Recorder receives operation outcomes for metrics.
type Recorder interface {
	ObserveOperation(op Operation, result, phase string, elapsed time.Duration)
}
