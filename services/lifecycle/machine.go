package lifecycle

import (
	"fmt"
	"strings"

	"hrms/apperror"
	"hrms/models"
)

// Event names a lifecycle transition.
type Event string

const (
	EventSubmit              Event = "submit"
	EventDispatch            Event = "dispatch"
	EventApprove             Event = "approve"
	EventReject              Event = "reject"
	EventTerminate           Event = "terminate"
	EventRequestDeactivation Event = "request deactivation for"
	EventApproveDeactivation Event = "approve deactivation for"
	EventRejectDeactivation  Event = "reject deactivation for"
	EventDeactivate          Event = "deactivate"
	EventRehire              Event = "rehire"
)

type statusRule struct {
	from []models.ApplicationStatus
	to   []models.ApplicationStatus
}

type employeeRule struct {
	from []models.EmployeeStatus
	to   models.EmployeeStatus
}

// statusMachine holds the legal moves of Onboarding.status, keyed by event.
var statusMachine = map[Event]statusRule{
	EventSubmit: {
		from: []models.ApplicationStatus{models.StatusDraft},
		to:   []models.ApplicationStatus{models.StatusSubmitted, models.StatusPendingApproval},
	},
	EventDispatch: {
		// pending_approval re-issues a link, e.g. after the first one expired
		from: []models.ApplicationStatus{models.StatusSubmitted, models.StatusPendingApproval},
		to:   []models.ApplicationStatus{models.StatusPendingApproval},
	},
	EventApprove: {
		from: []models.ApplicationStatus{models.StatusSubmitted, models.StatusPendingApproval},
		to:   []models.ApplicationStatus{models.StatusApproved},
	},
	EventReject: {
		from: []models.ApplicationStatus{models.StatusSubmitted, models.StatusPendingApproval},
		to:   []models.ApplicationStatus{models.StatusRejected},
	},
	EventTerminate: {
		from: []models.ApplicationStatus{models.StatusApproved},
		to:   []models.ApplicationStatus{models.StatusTerminated},
	},
}

// employeeMachine holds the legal moves of Onboarding.employeeStatus. It only applies while
// status is approved; approve itself enters the machine at active.
var employeeMachine = map[Event]employeeRule{
	EventRequestDeactivation: {
		from: []models.EmployeeStatus{models.EmployeeActive},
		to:   models.EmployeeDeactivationPending,
	},
	EventApproveDeactivation: {
		from: []models.EmployeeStatus{models.EmployeeDeactivationPending},
		to:   models.EmployeeDeactivated,
	},
	EventRejectDeactivation: {
		from: []models.EmployeeStatus{models.EmployeeDeactivationPending},
		to:   models.EmployeeActive,
	},
	EventDeactivate: {
		from: []models.EmployeeStatus{models.EmployeeActive, models.EmployeeDeactivationPending},
		to:   models.EmployeeDeactivated,
	},
	EventRehire: {
		from: []models.EmployeeStatus{models.EmployeeDeactivated},
		to:   models.EmployeeActive,
	},
	EventTerminate: {
		from: []models.EmployeeStatus{models.EmployeeActive, models.EmployeeDeactivationPending, models.EmployeeDeactivated},
		to:   models.EmployeeTerminated,
	},
}

// alreadyMessages replace the generic message when the record already sits in the target state.
var alreadyMessages = map[Event]string{
	EventApprove:             "Application is already approved!",
	EventReject:              "Application is already rejected!",
	EventTerminate:           "Employee is already terminated!",
	EventRequestDeactivation: "Deactivation request already pending!",
	EventDeactivate:          "Employee is already deactivated!",
}

// checkFrom validates that ev may fire from the record's current state.
func checkFrom(ev Event, rec *models.Onboarding) error {
	if rule, ok := statusMachine[ev]; ok {
		if !containsStatus(rule.from, rec.Status) {
			if containsStatus(rule.to, rec.Status) {
				return already(ev, string(rec.Status))
			}
			return apperror.InvalidState(fmt.Sprintf("Cannot %s an application in %s state!", ev, humanize(string(rec.Status))))
		}
	} else if rec.Status != models.StatusApproved {
		return apperror.InvalidState(fmt.Sprintf("Cannot %s an application in %s state!", ev, humanize(string(rec.Status))))
	}

	rule, ok := employeeMachine[ev]
	if !ok || rec.Status != models.StatusApproved {
		return nil
	}
	if !containsEmployee(rule.from, rec.EmployeeStatus) {
		if rec.EmployeeStatus == rule.to {
			return already(ev, string(rec.EmployeeStatus))
		}
		return apperror.InvalidState(fmt.Sprintf("Cannot %s an employee who is %s!", ev, humanize(string(rec.EmployeeStatus))))
	}
	return nil
}

// checkTarget validates the states a guard asked for against ev. An empty target keeps the
// current value.
func checkTarget(ev Event, rec *models.Onboarding, status models.ApplicationStatus, employee models.EmployeeStatus) error {
	if rule, ok := statusMachine[ev]; ok && !containsStatus(rule.to, status) {
		return apperror.Internal(fmt.Sprintf("lifecycle: %s cannot target status %q", ev, status), nil)
	}
	if rule, ok := employeeMachine[ev]; ok && rec.Status == models.StatusApproved && employee != rule.to {
		return apperror.Internal(fmt.Sprintf("lifecycle: %s cannot target employee status %q", ev, employee), nil)
	}
	return nil
}

func already(ev Event, state string) error {
	if msg, ok := alreadyMessages[ev]; ok {
		return apperror.InvalidState(msg)
	}
	return apperror.InvalidState(fmt.Sprintf("Application is already %s!", humanize(state)))
}

func humanize(state string) string {
	return strings.ReplaceAll(state, "_", " ")
}

func containsStatus(list []models.ApplicationStatus, s models.ApplicationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsEmployee(list []models.EmployeeStatus, s models.EmployeeStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
