package exportValidator

import (
	"strings"

	"hrms/services/exports"
	applicationValidator "hrms/validators/application"
	"hrms/validators/common"

	"github.com/gofiber/fiber/v2"
)

// ExportQuery is a listing filter plus the output shape.
type ExportQuery struct {
	applicationValidator.ListQuery
	Format string `query:"format" validate:"omitempty,oneof=csv json"`
	Fields string `query:"fields"`
}

// LinkRequest freezes a filter into a public export link.
type LinkRequest struct {
	Status         string   `json:"status"`
	EmployeeStatus string   `json:"employeeStatus"`
	OutletIDs      []uint   `json:"outletIds"`
	RoleID         *uint    `json:"roleId"`
	Search         string   `json:"search" validate:"omitempty,max=100"`
	From           string   `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To             string   `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Fields         []string `json:"fields"`
}

type PublicQuery struct {
	Format string `query:"format" validate:"omitempty,oneof=csv json"`
}

// FieldList splits the comma separated fields parameter.
func (q *ExportQuery) FieldList() []string {
	var out []string
	for _, f := range strings.Split(q.Fields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func format(f *string) {
	if *f == "" {
		*f = exports.FormatCSV
	}
}

func Export() fiber.Handler {
	return common.Query[ExportQuery]("validatedExport", func(q *ExportQuery, _ map[string]string) {
		format(&q.Format)
	})
}

func Link() fiber.Handler {
	return common.Body[LinkRequest]("validatedExportLink")
}

func Public() fiber.Handler {
	return common.Query[PublicQuery]("validatedPublicExport", func(q *PublicQuery, _ map[string]string) {
		format(&q.Format)
	})
}
