package applicationValidator

import (
	"strings"

	"hrms/models"
	"hrms/validators/common"

	"github.com/gofiber/fiber/v2"
)

// ReasonRequest carries the mandatory reason of reject, deactivation and direct deactivation.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// OptionalReasonRequest is used where a note may be left out, e.g. refusing a deactivation.
type OptionalReasonRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

type TerminateRequest struct {
	Reason           string `json:"reason" validate:"required,max=1000"`
	PerformanceNotes string `json:"performanceNotes" validate:"omitempty,max=2000"`
}

type TokenQuery struct {
	Token string `query:"token" validate:"required,hexadecimal"`
}

type TokenDecisionRequest struct {
	Token  string `json:"token" validate:"required,hexadecimal"`
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// ListQuery is the filter shared by every application listing.
type ListQuery struct {
	Status         string `query:"status"`
	EmployeeStatus string `query:"employeeStatus"`
	OutletID       uint   `query:"outletId"`
	RoleID         uint   `query:"roleId"`
	Search         string `query:"search" validate:"omitempty,max=100"`
	From           string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To             string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	common.Pagination
}

// Filter converts the query into the filter the engine understands.
func (q *ListQuery) Filter() models.ExportFilter {
	f := models.ExportFilter{
		Status:         q.Status,
		EmployeeStatus: q.EmployeeStatus,
		Search:         strings.TrimSpace(q.Search),
		From:           q.From,
		To:             q.To,
	}
	if q.OutletID > 0 {
		f.OutletIDs = []uint{q.OutletID}
	}
	if q.RoleID > 0 {
		id := q.RoleID
		f.RoleID = &id
	}
	return f
}

func statusCheck(status, employeeStatus string, errors map[string]string) {
	if status != "" && !models.ApplicationStatus(status).Valid() {
		errors["status"] = "Unknown application status!"
	}
	if employeeStatus != "" && !models.EmployeeStatus(employeeStatus).Valid() {
		errors["employeeStatus"] = "Unknown employee status!"
	}
}

func Reason() fiber.Handler {
	return common.Body[ReasonRequest]("validatedReason", func(r *ReasonRequest, errors map[string]string) {
		r.Reason = strings.TrimSpace(r.Reason)
		if r.Reason == "" {
			errors["reason"] = "reason is required!"
		}
	})
}

func OptionalReason() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// an empty body is allowed
		if len(c.Body()) == 0 {
			c.Locals("validatedReason", &OptionalReasonRequest{})
			return c.Next()
		}
		return common.Body[OptionalReasonRequest]("validatedReason")(c)
	}
}

func Terminate() fiber.Handler {
	return common.Body[TerminateRequest]("validatedTerminate", func(r *TerminateRequest, errors map[string]string) {
		r.Reason = strings.TrimSpace(r.Reason)
		if r.Reason == "" {
			errors["reason"] = "reason is required!"
		}
	})
}

func Token() fiber.Handler {
	return common.Query[TokenQuery]("validatedToken")
}

func TokenDecision() fiber.Handler {
	return common.Body[TokenDecisionRequest]("validatedTokenDecision")
}

// List validator middleware
func List() fiber.Handler {
	return common.Query[ListQuery]("validatedList", func(q *ListQuery, errors map[string]string) {
		statusCheck(q.Status, q.EmployeeStatus, errors)
	})
}
