package exportController

import (
	"bytes"
	"fmt"
	"time"

	"hrms/middleware"
	"hrms/models"
	"hrms/services"
	"hrms/services/exports"
	exportValidator "hrms/validators/export"

	"github.com/gofiber/fiber/v2"
)

func send(c *fiber.Ctx, format string, fields []string, rows []models.Onboarding) error {
	var buf bytes.Buffer
	if err := exports.Write(&buf, format, fields, rows); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	name := fmt.Sprintf("onboarding-%s.%s", time.Now().Format("20060102-150405"), format)
	c.Set(fiber.HeaderContentType, exports.ContentType(format))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

// Export streams the caller's filtered applications as CSV or JSON
func Export(c *fiber.Ctx) error {
	q := c.Locals("validatedExport").(*exportValidator.ExportQuery)
	rows, err := services.App.Exports.Rows(c.UserContext(), middleware.CurrentPrincipal(c), q.Filter())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return send(c, q.Format, q.FieldList(), rows)
}

// CreateLink freezes a filter into a shareable link that needs no login
func CreateLink(c *fiber.Ctx) error {
	reqData := c.Locals("validatedExportLink").(*exportValidator.LinkRequest)
	link, err := services.App.Exports.IssueLink(c.UserContext(), middleware.CurrentPrincipal(c), models.ExportFilter{
		Status:         reqData.Status,
		EmployeeStatus: reqData.EmployeeStatus,
		OutletIDs:      reqData.OutletIDs,
		RoleID:         reqData.RoleID,
		Search:         reqData.Search,
		From:           reqData.From,
		To:             reqData.To,
		Fields:         reqData.Fields,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Export link created.", link)
}

// Public serves a link created by CreateLink. The frozen filter already carries the issuer's scope.
func Public(c *fiber.Ctx) error {
	q := c.Locals("validatedPublicExport").(*exportValidator.PublicQuery)
	filter, err := services.App.Exports.Resolve(c.UserContext(), c.Params("token"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	rows, err := services.App.Exports.Rows(c.UserContext(), nil, *filter)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return send(c, q.Format, filter.Fields, rows)
}
