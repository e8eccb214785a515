package directory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"hrms/apperror"
	"hrms/models"

	"gorm.io/gorm"
)

// ImportRow is one outlet in a bulk import.
type ImportRow struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	Address         string `json:"address"`
	City            string `json:"city"`
	State           string `json:"state"`
	PinCode         string `json:"pincode"`
	ManagerEmail    string `json:"managerEmail"`
	FieldCoachEmail string `json:"fieldCoachEmail"`
}

// RowError reports a rejected row; Row is 1-based over data rows.
type RowError struct {
	Row   int    `json:"row"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type ImportSummary struct {
	Inserted   int        `json:"inserted"`
	Updated    int        `json:"updated"`
	Skipped    int        `json:"skipped"`
	Errors     []RowError `json:"errors"`
	Dispatched int        `json:"dispatched"`
}

var importColumns = []string{"code", "name", "address", "city", "state", "pincode", "managerEmail", "fieldCoachEmail"}

// ParseCSV reads an import file with a header row. Column order is free; unknown columns are
// ignored and code and name are required.
func ParseCSV(r io.Reader) ([]ImportRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperror.Validation("Import file is empty!")
	}
	if err != nil {
		return nil, apperror.Validation("Import file is not valid CSV!")
	}
	index := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		for _, col := range importColumns {
			if strings.EqualFold(h, col) {
				index[col] = i
			}
		}
	}
	if _, ok := index["code"]; !ok {
		return nil, apperror.Validation("Import file needs a code column!")
	}
	if _, ok := index["name"]; !ok {
		return nil, apperror.Validation("Import file needs a name column!")
	}

	var rows []ImportRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperror.Validation(fmt.Sprintf("Import file is not valid CSV: %v", err))
		}
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		rows = append(rows, ImportRow{
			Code:            get("code"),
			Name:            get("name"),
			Address:         get("address"),
			City:            get("city"),
			State:           get("state"),
			PinCode:         get("pincode"),
			ManagerEmail:    get("managerEmail"),
			FieldCoachEmail: get("fieldCoachEmail"),
		})
	}
	return rows, nil
}

// Import upserts rows by code. Each row commits on its own so one bad row does not undo the
// rest; blank rows are skipped.
func (s *Service) Import(ctx context.Context, rows []ImportRow) *ImportSummary {
	sum := &ImportSummary{Errors: []RowError{}}
	for i, row := range rows {
		row.Code = strings.ToUpper(strings.TrimSpace(row.Code))
		row.Name = strings.TrimSpace(row.Name)
		if row.Code == "" && row.Name == "" {
			sum.Skipped++
			continue
		}
		if row.Code == "" || row.Name == "" {
			sum.Errors = append(sum.Errors, RowError{Row: i + 1, Code: row.Code, Error: "code and name are required"})
			continue
		}

		var created bool
		var sent int
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			created, sent, err = s.importRow(tx, row)
			return err
		})
		if err != nil {
			sum.Errors = append(sum.Errors, RowError{Row: i + 1, Code: row.Code, Error: message(err)})
			continue
		}
		if created {
			sum.Inserted++
		} else {
			sum.Updated++
		}
		sum.Dispatched += sent
	}
	if sum.Dispatched > 0 && s.dispatch != nil {
		s.dispatch.Kick()
	}
	log.Printf("[DIRECTORY] import: %d inserted, %d updated, %d skipped, %d errors",
		sum.Inserted, sum.Updated, sum.Skipped, len(sum.Errors))
	return sum
}

func message(err error) string {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func (s *Service) importRow(tx *gorm.DB, row ImportRow) (bool, int, error) {
	manager, err := staffByEmail(tx, row.ManagerEmail, models.RoleStoreManager)
	if err != nil {
		return false, 0, err
	}
	coach, err := staffByEmail(tx, row.FieldCoachEmail, models.RoleFieldCoach)
	if err != nil {
		return false, 0, err
	}

	var outlet models.Outlet
	err = tx.Where("code = ?", row.Code).First(&outlet).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, 0, err
	}
	if manager != nil {
		if err := managerFree(tx, *manager, outlet.ID); err != nil {
			return false, 0, err
		}
	}

	coachChanged := false
	if created {
		outlet = models.Outlet{
			Code: row.Code, Name: row.Name, Address: row.Address, City: row.City,
			State: row.State, PinCode: row.PinCode, IsActive: true,
			ManagerID: manager, FieldCoachID: coach,
		}
		if err := tx.Create(&outlet).Error; err != nil {
			return false, 0, err
		}
		coachChanged = coach != nil
	} else {
		cols := map[string]interface{}{"name": row.Name}
		for column, v := range map[string]string{"address": row.Address, "city": row.City, "state": row.State, "pin_code": row.PinCode} {
			if v != "" {
				cols[column] = v
			}
		}
		if manager != nil {
			cols["manager_id"] = *manager
		}
		if coach != nil {
			cols["field_coach_id"] = *coach
			coachChanged = outlet.FieldCoachID == nil || *outlet.FieldCoachID != *coach
		}
		if err := tx.Model(&models.Outlet{}).Where("id = ?", outlet.ID).Updates(cols).Error; err != nil {
			return false, 0, err
		}
	}

	sent := 0
	if coachChanged && s.dispatch != nil {
		if sent, err = s.dispatch.DispatchSubmitted(tx, outlet.ID); err != nil {
			return false, 0, err
		}
	}
	return created, sent, nil
}

func staffByEmail(tx *gorm.DB, email, role string) (*uint, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var staff models.StaffAccount
	err := tx.Where("email = ?", email).First(&staff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("No staff account with email " + email)
	}
	if err != nil {
		return nil, err
	}
	if staff.Role != role || !staff.IsActive {
		return nil, apperror.Validation(email + " is not an active " + role)
	}
	return &staff.ID, nil
}
