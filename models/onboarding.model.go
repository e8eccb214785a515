package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApplicationStatus is the primary lifecycle state of an onboarding application
type ApplicationStatus string

const (
	StatusDraft           ApplicationStatus = "draft"
	StatusInProgress      ApplicationStatus = "in_progress"
	StatusSubmitted       ApplicationStatus = "submitted"
	StatusPendingApproval ApplicationStatus = "pending_approval"
	StatusApproved        ApplicationStatus = "approved"
	StatusRejected        ApplicationStatus = "rejected"
	StatusTerminated      ApplicationStatus = "terminated"
)

// ApplicationStatuses lists every valid ApplicationStatus
var ApplicationStatuses = []ApplicationStatus{
	StatusDraft, StatusInProgress, StatusSubmitted, StatusPendingApproval,
	StatusApproved, StatusRejected, StatusTerminated,
}

// Valid reports whether s is one of the known statuses
func (s ApplicationStatus) Valid() bool {
	for _, v := range ApplicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsOpen reports whether the candidate may still edit the application
func (s ApplicationStatus) IsOpen() bool {
	return s == StatusDraft || s == StatusInProgress
}

// EmployeeStatus is the secondary state, authoritative only while status is approved
type EmployeeStatus string

const (
	EmployeeActive              EmployeeStatus = "active"
	EmployeeDeactivationPending EmployeeStatus = "deactivation_pending"
	EmployeeDeactivated         EmployeeStatus = "deactivated"
	EmployeeTerminated          EmployeeStatus = "terminated"
)

var EmployeeStatuses = []EmployeeStatus{
	EmployeeActive, EmployeeDeactivationPending, EmployeeDeactivated, EmployeeTerminated,
}

func (s EmployeeStatus) Valid() bool {
	for _, v := range EmployeeStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Document slots a candidate can upload
const (
	DocumentPhoto        = "photo"
	DocumentAadhaarFront = "aadhaarFront"
	DocumentAadhaarBack  = "aadhaarBack"
	DocumentPanCard      = "panCard"
	DocumentBankProof    = "bankProof"
	DocumentResume       = "resume"
	DocumentSignature    = "signature"
)

var DocumentSlots = []string{
	DocumentPhoto, DocumentAadhaarFront, DocumentAadhaarBack, DocumentPanCard,
	DocumentBankProof, DocumentResume, DocumentSignature,
}

// Document references an uploaded artifact
type Document struct {
	Filename   string    `json:"filename"`
	StorageRef string    `json:"storageRef"`
	MimeType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// OutletSnapshot is the outlet identity frozen into an employment record
type OutletSnapshot struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// EmploymentRecord is one archived stint of employment
type EmploymentRecord struct {
	Role              string         `json:"role"`
	Outlet            OutletSnapshot `json:"outlet"`
	JoinDate          *time.Time     `json:"joinDate"`
	EndDate           time.Time      `json:"endDate"`
	EndReason         string         `json:"endReason"` // terminated, deactivated
	TerminationReason string         `json:"terminationReason,omitempty"`
	PerformanceNotes  string         `json:"performanceNotes,omitempty"`
}

// Education and experience entries are carried along as free-form profile data
type Education struct {
	Qualification string `json:"qualification"`
	Institution   string `json:"institution"`
	YearOfPassing string `json:"yearOfPassing"`
	Percentage    string `json:"percentage"`
}

type Experience struct {
	Company     string `json:"company"`
	Designation string `json:"designation"`
	FromDate    string `json:"fromDate"`
	ToDate      string `json:"toDate"`
	Reason      string `json:"reasonForLeaving"`
}

// Onboarding is one candidate's journey from draft to employee
type Onboarding struct {
	gorm.Model
	EmployeeKey *string `gorm:"size:40;uniqueIndex" json:"employeeKey"`

	// Personal and contact
	FullName      string `gorm:"size:150" json:"fullName"`
	FatherName    string `gorm:"size:150" json:"fatherName"`
	DateOfBirth   string `gorm:"size:20" json:"dateOfBirth"`
	Gender        string `gorm:"size:20" json:"gender"`
	MaritalStatus string `gorm:"size:20" json:"maritalStatus"`
	BloodGroup    string `gorm:"size:10" json:"bloodGroup"`
	Phone         string `gorm:"size:15;index;not null" json:"phone"`
	// set to Phone while the record is an open draft, NULL afterwards
	OpenDraftPhone   *string `gorm:"size:15;uniqueIndex" json:"-"`
	Email            string  `gorm:"size:100;index" json:"email"`
	AlternatePhone   string  `gorm:"size:15" json:"alternatePhone"`
	EmergencyContact string  `gorm:"size:150" json:"emergencyContact"`
	EmergencyPhone   string  `gorm:"size:15" json:"emergencyPhone"`
	CurrentAddress   string  `gorm:"type:text" json:"currentAddress"`
	PermanentAddress string  `gorm:"type:text" json:"permanentAddress"`
	City             string  `gorm:"size:100" json:"city"`
	State            string  `gorm:"size:100" json:"state"`
	PinCode          string  `gorm:"size:10" json:"pinCode"`

	// Bank
	BankAccountNumber string `gorm:"size:30" json:"bankAccountNumber"`
	BankIFSC          string `gorm:"size:15" json:"bankIfsc"`
	BankName          string `gorm:"size:100" json:"bankName"`

	Education  datatypes.JSONType[[]Education]  `json:"education"`
	Experience datatypes.JSONType[[]Experience] `json:"experience"`
	Extras     datatypes.JSONMap                `json:"extras"`

	// Identity
	AadhaarNumber   string            `gorm:"size:12;index" json:"aadhaarNumber"`
	PanNumber       string            `gorm:"size:10" json:"panNumber"`
	IdentityProfile datatypes.JSONMap `json:"identityProfile,omitempty"`
	// provider flow started for this draft; only its result may verify the Aadhaar
	AadhaarClientID string `gorm:"size:100" json:"-"`

	// Verification flags
	AadhaarVerified  bool `gorm:"default:false" json:"aadhaarVerified"`
	PanVerified      bool `gorm:"default:false" json:"panVerified"`
	PhoneOtpVerified bool `gorm:"default:false" json:"phoneOtpVerified"`
	EmailOtpVerified bool `gorm:"default:false" json:"emailOtpVerified"`

	Documents datatypes.JSONType[map[string]Document] `json:"documents"`

	// Assignment
	OutletID *uint           `gorm:"index" json:"outletId"`
	Outlet   *Outlet         `gorm:"foreignKey:OutletID" json:"outlet,omitempty"`
	RoleID   *uint           `gorm:"index" json:"roleId"`
	Role     *RoleDefinition `gorm:"foreignKey:RoleID" json:"role,omitempty"`

	Status         ApplicationStatus `gorm:"type:varchar(30);not null;default:'draft';index" json:"status"`
	EmployeeStatus EmployeeStatus    `gorm:"type:varchar(30);not null;default:'active';index" json:"employeeStatus"`
	SubmittedAt    *time.Time        `json:"submittedAt"`
	JoinDate       *time.Time        `json:"joinDate"`

	ApprovedBy      *uint      `json:"approvedBy"`
	ApprovedByRole  string     `gorm:"size:30" json:"approvedByRole,omitempty"`
	ApprovalDate    *time.Time `json:"approvalDate"`
	RejectedBy      *uint      `json:"rejectedBy"`
	RejectedAt      *time.Time `json:"rejectedAt"`
	RejectionReason *string    `gorm:"type:text" json:"rejectionReason"`

	DeactivationReason      *string `gorm:"type:text" json:"deactivationReason"`
	DeactivationRequestedBy *uint   `json:"deactivationRequestedBy"`
	// staff or outlet: which table DeactivationRequestedBy points into
	DeactivationRequestedByKind *string    `gorm:"size:20" json:"deactivationRequestedByKind"`
	DeactivationRequestedAt     *time.Time `json:"deactivationRequestedAt"`
	DeactivationApprovedBy      *uint      `json:"deactivationApprovedBy"`
	DeactivatedAt               *time.Time `json:"deactivatedAt"`

	TerminatedBy      *uint      `json:"terminatedBy"`
	TerminatedAt      *time.Time `json:"terminatedAt"`
	TerminationReason *string    `gorm:"type:text" json:"terminationReason"`

	RehiredBy *uint      `json:"rehiredBy"`
	RehiredAt *time.Time `json:"rehiredAt"`

	ApprovalTokenHash   string     `gorm:"size:64;index" json:"-"`
	ApprovalTokenExpiry *time.Time `json:"-"`

	LMSUserID string `gorm:"size:100" json:"lmsUserId,omitempty"`

	PreviousEmployment datatypes.JSONType[[]EmploymentRecord] `json:"previousEmployment"`
}

func (Onboarding) TableName() string {
	return "onboardings"
}

// DocumentMap returns the documents, never nil
func (o *Onboarding) DocumentMap() map[string]Document {
	docs := o.Documents.Data()
	if docs == nil {
		docs = map[string]Document{}
	}
	return docs
}

// History returns previousEmployment, never nil
func (o *Onboarding) History() []EmploymentRecord {
	h := o.PreviousEmployment.Data()
	if h == nil {
		return []EmploymentRecord{}
	}
	return h
}
