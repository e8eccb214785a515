package outletController

import (
	"bytes"
	"encoding/json"
	"strings"

	"hrms/apperror"
	"hrms/middleware"
	"hrms/services"
	"hrms/services/directory"
	"hrms/validators/common"
	outletValidator "hrms/validators/outlet"

	"github.com/gofiber/fiber/v2"
)

func Create(c *fiber.Ctx) error {
	reqData := c.Locals("validatedOutlet").(*outletValidator.OutletRequest)
	in := directory.OutletInput{
		Code:     &reqData.Code,
		Name:     &reqData.Name,
		Address:  &reqData.Address,
		City:     &reqData.City,
		State:    &reqData.State,
		PinCode:  &reqData.PinCode,
		Phone:    &reqData.Phone,
		Email:    &reqData.Email,
		IsActive: reqData.IsActive,
	}
	outlet, err := services.App.Directory.Create(c.UserContext(), in, reqData.Password)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Outlet created successfully.", outlet)
}

func Update(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedOutletUpdate").(*outletValidator.UpdateOutletRequest)
	outlet, err := services.App.Directory.Update(c.UserContext(), id, directory.OutletInput{
		Code:     reqData.Code,
		Name:     reqData.Name,
		Address:  reqData.Address,
		City:     reqData.City,
		State:    reqData.State,
		PinCode:  reqData.PinCode,
		Phone:    reqData.Phone,
		Email:    reqData.Email,
		IsActive: reqData.IsActive,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Outlet updated successfully.", outlet)
}

func Get(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	outlet, err := services.App.Directory.Get(c.UserContext(), id)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Outlet fetched successfully.", outlet)
}

// List pages the outlets visible to the caller
func List(c *fiber.Ctx) error {
	q := c.Locals("validatedOutletList").(*outletValidator.ListQuery)
	f := directory.OutletFilter{Search: q.Search, Page: q.Page, Limit: q.Limit}
	if q.IsActive != "" {
		active := q.IsActive == "true"
		f.IsActive = &active
	}
	items, total, err := services.App.Directory.List(c.UserContext(), middleware.CurrentPrincipal(c), f)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Outlets fetched successfully.", fiber.Map{
		"items": items,
		"total": total,
	})
}

// Active is the public outlet list for the candidate form
func Active(c *fiber.Ctx) error {
	items, err := services.App.Directory.ActiveOutlets(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Outlets fetched successfully.", items)
}

func Delete(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := services.App.Directory.Delete(c.UserContext(), id); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Outlet deleted successfully.", nil)
}

func assign(c *fiber.Ctx, slot string) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedAssign").(*outletValidator.AssignRequest)
	outlet, sent, err := services.App.Directory.Assign(c.UserContext(), id, slot, reqData.StaffID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Outlet assignment updated.", fiber.Map{
		"outlet":     outlet,
		"dispatched": sent,
	})
}

func AssignManager(c *fiber.Ctx) error {
	return assign(c, directory.SlotManager)
}

// AssignFieldCoach also sends approval links for applications that were waiting for a coach
func AssignFieldCoach(c *fiber.Ctx) error {
	return assign(c, directory.SlotFieldCoach)
}

func SetPassword(c *fiber.Ctx) error {
	id, err := common.ParamID(c, "id")
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedPassword").(*outletValidator.PasswordRequest)
	if err := services.App.Directory.SetPassword(c.UserContext(), id, reqData.Password); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Outlet password updated.", nil)
}

// Import accepts a CSV upload in the "file" part or a JSON array of rows
func Import(c *fiber.Ctx) error {
	var rows []directory.ImportRow
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			return common.FieldErrors(c, map[string]string{"file": "file is required!"})
		}
		f, err := file.Open()
		if err != nil {
			return middleware.ErrorResponse(c, apperror.Internal("Failed to read upload!", err))
		}
		defer f.Close()
		if rows, err = directory.ParseCSV(f); err != nil {
			return middleware.ErrorResponse(c, err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		if err := dec.Decode(&rows); err != nil {
			return middleware.ErrorResponse(c, apperror.Validation("Body must be a JSON array of outlets!"))
		}
	}
	if len(rows) == 0 {
		return middleware.ErrorResponse(c, apperror.Validation("Nothing to import!"))
	}
	sum := services.App.Directory.Import(c.UserContext(), rows)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Outlet import finished.", sum)
}
