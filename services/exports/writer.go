package exports

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"hrms/apperror"
	"hrms/models"
	"hrms/utils"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

type column struct {
	key    string
	header string
	value  func(o *models.Onboarding) string
}

func optTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var columns = []column{
	{"id", "ID", func(o *models.Onboarding) string { return strconv.FormatUint(uint64(o.ID), 10) }},
	{"employeeKey", "Employee Key", func(o *models.Onboarding) string { return optString(o.EmployeeKey) }},
	{"fullName", "Full Name", func(o *models.Onboarding) string { return o.FullName }},
	{"phone", "Phone", func(o *models.Onboarding) string { return o.Phone }},
	{"email", "Email", func(o *models.Onboarding) string { return o.Email }},
	{"gender", "Gender", func(o *models.Onboarding) string { return o.Gender }},
	{"dateOfBirth", "Date of Birth", func(o *models.Onboarding) string { return o.DateOfBirth }},
	{"city", "City", func(o *models.Onboarding) string { return o.City }},
	{"state", "State", func(o *models.Onboarding) string { return o.State }},
	{"aadhaar", "Aadhaar", func(o *models.Onboarding) string { return utils.MaskAadhaar(o.AadhaarNumber) }},
	{"outlet", "Outlet", func(o *models.Onboarding) string {
		if o.Outlet == nil {
			return ""
		}
		return o.Outlet.Name
	}},
	{"outletCode", "Outlet Code", func(o *models.Onboarding) string {
		if o.Outlet == nil {
			return ""
		}
		return o.Outlet.Code
	}},
	{"role", "Role", func(o *models.Onboarding) string {
		if o.Role == nil {
			return ""
		}
		return o.Role.Title
	}},
	{"status", "Status", func(o *models.Onboarding) string { return string(o.Status) }},
	{"employeeStatus", "Employee Status", func(o *models.Onboarding) string {
		if o.Status != models.StatusApproved {
			return ""
		}
		return string(o.EmployeeStatus)
	}},
	{"submittedAt", "Submitted", func(o *models.Onboarding) string { return optTime(o.SubmittedAt) }},
	{"joinDate", "Join Date", func(o *models.Onboarding) string { return optTime(o.JoinDate) }},
	{"approvalDate", "Approved", func(o *models.Onboarding) string { return optTime(o.ApprovalDate) }},
	{"deactivatedAt", "Deactivated", func(o *models.Onboarding) string { return optTime(o.DeactivatedAt) }},
	{"terminatedAt", "Terminated", func(o *models.Onboarding) string { return optTime(o.TerminatedAt) }},
}

// selectColumns keeps the requested fields in catalog order; no fields means all of them.
func selectColumns(fields []string) ([]column, error) {
	if len(fields) == 0 {
		return columns, nil
	}
	want := map[string]bool{}
	for _, f := range fields {
		want[f] = true
	}
	out := []column{}
	for _, c := range columns {
		if want[c.key] {
			out = append(out, c)
			delete(want, c.key)
		}
	}
	for f := range want {
		return nil, apperror.Validation("Unknown export field: " + f)
	}
	return out, nil
}

// CheckFields rejects names outside the column catalog.
func CheckFields(fields []string) error {
	_, err := selectColumns(fields)
	return err
}

// ValidFormat reports whether format is supported.
func ValidFormat(format string) bool {
	return format == FormatCSV || format == FormatJSON
}

// ContentType returns the response content type for format.
func ContentType(format string) string {
	if format == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// Write renders rows to w in format, restricted to fields.
func Write(w io.Writer, format string, fields []string, rows []models.Onboarding) error {
	cols, err := selectColumns(fields)
	if err != nil {
		return err
	}
	switch format {
	case FormatCSV:
		return writeCSV(w, cols, rows)
	case FormatJSON:
		return writeJSON(w, cols, rows)
	}
	return apperror.Validation("Unsupported export format!")
}

func writeCSV(w io.Writer, cols []column, rows []models.Onboarding) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.header
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for i := range rows {
		for j, c := range cols {
			record[j] = c.value(&rows[i])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, cols []column, rows []models.Onboarding) error {
	out := make([]map[string]string, 0, len(rows))
	for i := range rows {
		m := make(map[string]string, len(cols))
		for _, c := range cols {
			m[c.key] = c.value(&rows[i])
		}
		out = append(out, m)
	}
	return json.NewEncoder(w).Encode(out)
}
