package lifecycle

import (
	"regexp"
	"testing"
	"time"

	"hrms/apperror"
	"hrms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var employeeKeyPattern = regexp.MustCompile(`^EMP-[0-9A-Z]+-[0-9A-Z]{6}$`)

func TestSubmitGates(t *testing.T) {
	e := newEnv(t)

	rec, err := e.eng.SaveDraft(e.ctx, DraftInput{Phone: "9000000001", FullName: "No Outlet"})
	require.NoError(t, err)

	_, err = e.eng.Submit(e.ctx, rec.ID)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "Outlet must be selected before submission")

	_, err = e.eng.SaveDraft(e.ctx, DraftInput{Phone: "9000000001", OutletID: &e.outlet.ID, RoleID: &e.role.ID})
	require.NoError(t, err)
	_, err = e.eng.Submit(e.ctx, rec.ID)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "Aadhaar")

	e.verifyAadhaar(rec.ID, "111122223333")
	_, err = e.eng.Submit(e.ctx, rec.ID)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "Photo")

	assert.Equal(t, models.StatusDraft, e.reload(rec.ID).Status)
	assert.Empty(t, e.events(rec.ID, models.EventApplicationSubmitted))
}

func TestSubmitInactiveOutlet(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000002", "111122223334", e.outlet.ID)
	require.NoError(t, e.db.Model(&models.Outlet{}).Where("id = ?", e.outlet.ID).Update("is_active", false).Error)

	_, err := e.eng.Submit(e.ctx, rec.ID)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "no longer active")
}

func TestSubmitOnlyFromDraft(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000003", "111122223335", e.outlet.ID)

	_, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)

	_, err = e.eng.Submit(e.ctx, rec.ID)
	require.ErrorIs(t, err, apperror.ErrInvalidState)

	_, err = e.eng.AttachDocument(e.ctx, rec.ID, models.DocumentResume, models.Document{Filename: "cv.pdf"})
	require.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestSubmitRequestsCoachApproval(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000004", "111122223336", e.outlet.ID)

	out, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, out.Status)
	require.NotNil(t, out.SubmittedAt)
	assert.NotEmpty(t, out.ApprovalTokenHash)
	require.NotNil(t, out.ApprovalTokenExpiry)
	assert.True(t, out.ApprovalTokenExpiry.Equal(e.clock.Add(48*time.Hour)))

	assert.Len(t, e.events(rec.ID, models.EventApplicationSubmitted), 1)
	requested := e.events(rec.ID, models.EventApprovalRequested)
	require.Len(t, requested, 1)
	assert.True(t, requested[0].Sensitive)
	assert.Equal(t, "coach@example.com", requested[0].Payload["coachEmail"])
	assert.Contains(t, requested[0].Payload["approvalLink"], "https://hr.example.com/public/approvals/")

	raw := e.approvalToken(rec.ID)
	assert.Equal(t, hashToken(raw), out.ApprovalTokenHash)
	assert.Positive(t, e.notifier.kicks)
}

func TestSubmitWithoutCoachWaitsForDispatch(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000005", "111122223337", e.bareOutlet.ID)

	out, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, out.Status)
	assert.Empty(t, out.ApprovalTokenHash)
	assert.Empty(t, e.events(rec.ID, models.EventApprovalRequested))

	_, err = e.eng.DispatchApproval(e.ctx, rec.ID, e.admin)
	require.ErrorIs(t, err, apperror.ErrValidation)

	coachID := e.coach.ID
	require.NoError(t, e.db.Model(&models.Outlet{}).Where("id = ?", e.bareOutlet.ID).Update("field_coach_id", coachID).Error)

	_, err = e.eng.DispatchApproval(e.ctx, rec.ID, e.coach)
	require.ErrorIs(t, err, apperror.ErrForbidden)

	out, err = e.eng.DispatchApproval(e.ctx, rec.ID, e.admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, out.Status)
	assert.Len(t, e.events(rec.ID, models.EventApprovalRequested), 1)
}

func TestDispatchSubmittedForOutlet(t *testing.T) {
	e := newEnv(t)
	a := e.readyDraft("9000000006", "111122223338", e.bareOutlet.ID)
	b := e.readyDraft("9000000007", "111122223339", e.bareOutlet.ID)
	for _, id := range []uint{a.ID, b.ID} {
		_, err := e.eng.Submit(e.ctx, id)
		require.NoError(t, err)
	}

	require.NoError(t, e.db.Model(&models.Outlet{}).Where("id = ?", e.bareOutlet.ID).Update("field_coach_id", e.coach.ID).Error)
	n, err := e.eng.DispatchSubmitted(e.db, e.bareOutlet.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, models.StatusPendingApproval, e.reload(a.ID).Status)
	assert.Equal(t, models.StatusPendingApproval, e.reload(b.ID).Status)
}

func TestApproveMintsEmployeeKeyOnce(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000010", "222233334444", e.outlet.ID)
	_, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, e.reload(rec.ID).EmployeeKey)

	out, err := e.eng.Approve(e.ctx, rec.ID, e.coach)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, out.Status)
	assert.Equal(t, models.EmployeeActive, out.EmployeeStatus)
	require.NotNil(t, out.EmployeeKey)
	assert.Regexp(t, employeeKeyPattern, *out.EmployeeKey)
	assert.Equal(t, e.coach.ID, *out.ApprovedBy)
	assert.Equal(t, models.RoleFieldCoach, out.ApprovedByRole)
	assert.Empty(t, out.ApprovalTokenHash)
	assert.Nil(t, out.ApprovalTokenExpiry)
	key := *out.EmployeeKey

	_, err = e.eng.Approve(e.ctx, rec.ID, e.coach)
	require.ErrorIs(t, err, apperror.ErrInvalidState)
	assert.Contains(t, err.Error(), "already approved")

	// the key survives every later transition
	_, err = e.eng.DeactivateDirect(e.ctx, rec.ID, e.admin, "seasonal closure")
	require.NoError(t, err)
	_, err = e.eng.Rehire(e.ctx, rec.ID, e.admin)
	require.NoError(t, err)
	_, err = e.eng.Terminate(e.ctx, rec.ID, e.admin, TerminateInput{Reason: "policy violation"})
	require.NoError(t, err)
	assert.Equal(t, key, *e.reload(rec.ID).EmployeeKey)

	approved := e.events(rec.ID, models.EventApplicationApproved)
	require.Len(t, approved, 1)
	assert.Equal(t, key, approved[0].Payload["employeeKey"])
}

func TestRejectRequiresReason(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000011", "222233334445", e.outlet.ID)
	_, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)

	_, err = e.eng.Reject(e.ctx, rec.ID, e.coach, "   ")
	require.ErrorIs(t, err, apperror.ErrValidation)

	out, err := e.eng.Reject(e.ctx, rec.ID, e.coach, "documents unclear")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, out.Status)
	assert.Equal(t, "documents unclear", *out.RejectionReason)
	assert.Nil(t, out.EmployeeKey)

	_, err = e.eng.Approve(e.ctx, rec.ID, e.admin)
	require.ErrorIs(t, err, apperror.ErrInvalidState)
	_, err = e.eng.Reject(e.ctx, rec.ID, e.admin, "again")
	require.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestCoachOutsideScopeIsForbidden(t *testing.T) {
	e := newEnv(t)

	pending := e.readyDraft("9000000012", "222233334446", e.outlet.ID)
	_, err := e.eng.Submit(e.ctx, pending.ID)
	require.NoError(t, err)

	rejected := e.readyDraft("9000000013", "222233334447", e.outlet.ID)
	_, err = e.eng.Submit(e.ctx, rejected.ID)
	require.NoError(t, err)
	_, err = e.eng.Reject(e.ctx, rejected.ID, e.coach, "no show")
	require.NoError(t, err)

	employee := e.approved("9000000014", "222233334448")
	_, err = e.eng.RequestDeactivation(e.ctx, employee.ID, e.manager, "absent")
	require.NoError(t, err)

	for _, id := range []uint{pending.ID, rejected.ID, employee.ID} {
		_, err = e.eng.Approve(e.ctx, id, e.otherCoach)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
		_, err = e.eng.Reject(e.ctx, id, e.otherCoach, "not mine")
		assert.ErrorIs(t, err, apperror.ErrForbidden)
		_, err = e.eng.ApproveDeactivation(e.ctx, id, e.otherCoach)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	}
	assert.Equal(t, models.StatusPendingApproval, e.reload(pending.ID).Status)
	assert.Equal(t, models.EmployeeDeactivationPending, e.reload(employee.ID).EmployeeStatus)
}

func TestRoleChecks(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000015", "222233334449", e.outlet.ID)
	_, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)

	_, err = e.eng.Approve(e.ctx, rec.ID, e.manager)
	require.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = e.eng.Approve(e.ctx, rec.ID, e.admin)
	require.NoError(t, err)

	_, err = e.eng.DeactivateDirect(e.ctx, rec.ID, e.coach, "reason")
	require.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = e.eng.RequestDeactivation(e.ctx, rec.ID, e.coach, "reason")
	require.ErrorIs(t, err, apperror.ErrForbidden)

	outletLogin := &models.Principal{ID: e.outlet.ID, Role: models.RoleStoreManager, Kind: models.PrincipalOutlet}
	out, err := e.eng.RequestDeactivation(e.ctx, rec.ID, outletLogin, "reason")
	require.NoError(t, err)
	assert.Equal(t, models.EmployeeDeactivationPending, out.EmployeeStatus)
}

func TestApproveByToken(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000020", "333344445555", e.outlet.ID)
	_, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)
	raw := e.approvalToken(rec.ID)

	_, err = e.eng.ApproveByToken(e.ctx, rec.ID, "deadbeef")
	require.ErrorIs(t, err, apperror.ErrUnauthenticated)

	got, err := e.eng.GetByToken(e.ctx, rec.ID, raw)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	out, err := e.eng.ApproveByToken(e.ctx, rec.ID, raw)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, out.Status)
	assert.Equal(t, e.coach.ID, *out.ApprovedBy)
	assert.Empty(t, out.ApprovalTokenHash)

	approved := e.events(rec.ID, models.EventApplicationApproved)
	require.Len(t, approved, 1)
	require.NotNil(t, approved[0].ActorID)
	assert.Equal(t, e.coach.ID, *approved[0].ActorID)

	_, err = e.eng.ApproveByToken(e.ctx, rec.ID, raw)
	require.ErrorIs(t, err, apperror.ErrInvalidState)
	_, err = e.eng.GetByToken(e.ctx, rec.ID, raw)
	require.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRejectByTokenIsSingleUse(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000021", "333344445556", e.outlet.ID)
	_, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)
	raw := e.approvalToken(rec.ID)

	_, err = e.eng.RejectByToken(e.ctx, rec.ID, raw, "")
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.NotEmpty(t, e.reload(rec.ID).ApprovalTokenHash)

	out, err := e.eng.RejectByToken(e.ctx, rec.ID, raw, "failed trial shift")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, out.Status)
	assert.Empty(t, out.ApprovalTokenHash)

	_, err = e.eng.RejectByToken(e.ctx, rec.ID, raw, "again")
	require.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestExpiredTokenIsCleared(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000022", "333344445557", e.outlet.ID)
	_, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)
	raw := e.approvalToken(rec.ID)

	e.advance(49 * time.Hour)
	_, err = e.eng.ApproveByToken(e.ctx, rec.ID, raw)
	require.ErrorIs(t, err, apperror.ErrExpired)

	after := e.reload(rec.ID)
	assert.Equal(t, models.StatusPendingApproval, after.Status)
	assert.Empty(t, after.ApprovalTokenHash)
	assert.Nil(t, after.ApprovalTokenExpiry)

	_, err = e.eng.ApproveByToken(e.ctx, rec.ID, raw)
	require.ErrorIs(t, err, apperror.ErrConflict)

	// staff can still decide directly
	_, err = e.eng.Approve(e.ctx, rec.ID, e.coach)
	require.NoError(t, err)
}

func TestTerminateArchivesOneEntry(t *testing.T) {
	e := newEnv(t)
	rec := e.approved("9000000030", "444455556666")

	_, err := e.eng.Terminate(e.ctx, rec.ID, e.coach, TerminateInput{})
	require.ErrorIs(t, err, apperror.ErrValidation)

	e.advance(30 * 24 * time.Hour)
	out, err := e.eng.Terminate(e.ctx, rec.ID, e.coach, TerminateInput{Reason: "policy violation", PerformanceNotes: "late twice"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTerminated, out.Status)
	assert.Equal(t, models.EmployeeTerminated, out.EmployeeStatus)

	history := out.History()
	require.Len(t, history, 1)
	assert.Equal(t, EndReasonTerminated, history[0].EndReason)
	assert.Equal(t, "policy violation", history[0].TerminationReason)
	assert.Equal(t, "late twice", history[0].PerformanceNotes)
	assert.Equal(t, "Line Cook", history[0].Role)
	assert.Equal(t, "BLR-01", history[0].Outlet.Code)
	require.NotNil(t, history[0].JoinDate)
	assert.True(t, history[0].EndDate.After(*history[0].JoinDate))

	_, err = e.eng.Terminate(e.ctx, rec.ID, e.admin, TerminateInput{Reason: "again"})
	require.ErrorIs(t, err, apperror.ErrInvalidState)
	assert.Len(t, e.reload(rec.ID).History(), 1)
}

func TestTerminateBeforeApproval(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000031", "444455556667", e.outlet.ID)
	_, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)

	_, err = e.eng.Terminate(e.ctx, rec.ID, e.admin, TerminateInput{Reason: "never joined"})
	require.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestDeactivationRoundTrips(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		e := newEnv(t)
		rec := e.approved("9000000040", "555566667777")
		out, err := e.eng.RequestDeactivation(e.ctx, rec.ID, e.manager, "long leave")
		require.NoError(t, err)
		assert.Equal(t, models.EmployeeDeactivationPending, out.EmployeeStatus)
		require.NotNil(t, out.DeactivationRequestedByKind)
		assert.Equal(t, models.PrincipalStaff, *out.DeactivationRequestedByKind)

		_, err = e.eng.RequestDeactivation(e.ctx, rec.ID, e.manager, "again")
		require.ErrorIs(t, err, apperror.ErrInvalidState)
		assert.Contains(t, err.Error(), "already pending")

		out, err = e.eng.ApproveDeactivation(e.ctx, rec.ID, e.coach)
		require.NoError(t, err)
		assert.Equal(t, models.EmployeeDeactivated, out.EmployeeStatus)
		assert.Equal(t, models.StatusApproved, out.Status)
		require.NotNil(t, out.DeactivatedAt)
		assert.Empty(t, out.History())
	})

	t.Run("reject", func(t *testing.T) {
		e := newEnv(t)
		rec := e.approved("9000000041", "555566667778")
		_, err := e.eng.RejectDeactivation(e.ctx, rec.ID, e.coach, "")
		require.ErrorIs(t, err, apperror.ErrInvalidState)

		_, err = e.eng.RequestDeactivation(e.ctx, rec.ID, e.manager, "long leave")
		require.NoError(t, err)

		out, err := e.eng.RejectDeactivation(e.ctx, rec.ID, e.coach, "needed for festival rush")
		require.NoError(t, err)
		assert.Equal(t, models.EmployeeActive, out.EmployeeStatus)
		assert.Nil(t, out.DeactivationReason)
		assert.Nil(t, out.DeactivationRequestedBy)
		assert.Nil(t, out.DeactivationRequestedByKind)
		assert.Nil(t, out.DeactivationRequestedAt)

		rejected := e.events(rec.ID, models.EventDeactivationRejected)
		require.Len(t, rejected, 1)
		assert.Equal(t, "needed for festival rush", rejected[0].Payload["rejectionReason"])
	})

	t.Run("outlet login", func(t *testing.T) {
		e := newEnv(t)
		rec := e.approved("9000000043", "555566667770")
		counter := &models.Principal{ID: e.outlet.ID, Role: models.RoleStoreManager, Kind: models.PrincipalOutlet}
		out, err := e.eng.RequestDeactivation(e.ctx, rec.ID, counter, "moved city")
		require.NoError(t, err)
		require.NotNil(t, out.DeactivationRequestedBy)
		assert.Equal(t, e.outlet.ID, *out.DeactivationRequestedBy)
		require.NotNil(t, out.DeactivationRequestedByKind)
		assert.Equal(t, models.PrincipalOutlet, *out.DeactivationRequestedByKind)

		requested := e.events(rec.ID, models.EventDeactivationRequest)
		require.Len(t, requested, 1)
		assert.Equal(t, models.PrincipalOutlet, requested[0].Payload["requestedByKind"])
	})

	t.Run("direct", func(t *testing.T) {
		e := newEnv(t)
		rec := e.approved("9000000042", "555566667779")
		out, err := e.eng.DeactivateDirect(e.ctx, rec.ID, e.admin, "outlet closed")
		require.NoError(t, err)
		assert.Equal(t, models.EmployeeDeactivated, out.EmployeeStatus)

		_, err = e.eng.DeactivateDirect(e.ctx, rec.ID, e.admin, "again")
		require.ErrorIs(t, err, apperror.ErrInvalidState)
		assert.Contains(t, err.Error(), "already deactivated")
	})
}

func TestRehireArchivesDeactivatedStint(t *testing.T) {
	e := newEnv(t)
	rec := e.approved("9000000050", "666677778888")

	_, err := e.eng.Rehire(e.ctx, rec.ID, e.admin)
	require.ErrorIs(t, err, apperror.ErrInvalidState)

	e.advance(10 * 24 * time.Hour)
	_, err = e.eng.DeactivateDirect(e.ctx, rec.ID, e.admin, "seasonal closure")
	require.NoError(t, err)
	deactivatedAt := e.clock

	e.advance(60 * 24 * time.Hour)
	_, err = e.eng.Rehire(e.ctx, rec.ID, e.coach)
	require.ErrorIs(t, err, apperror.ErrForbidden)

	out, err := e.eng.Rehire(e.ctx, rec.ID, e.admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, out.Status)
	assert.Equal(t, models.EmployeeActive, out.EmployeeStatus)
	require.NotNil(t, out.RehiredAt)

	history := out.History()
	require.Len(t, history, 1)
	assert.Equal(t, EndReasonDeactivated, history[0].EndReason)
	assert.Equal(t, "seasonal closure", history[0].TerminationReason)
	assert.True(t, history[0].EndDate.Equal(deactivatedAt))

	// a later termination archives the second stint separately
	_, err = e.eng.Terminate(e.ctx, rec.ID, e.admin, TerminateInput{Reason: "resigned"})
	require.NoError(t, err)
	history = e.reload(rec.ID).History()
	require.Len(t, history, 2)
	assert.Equal(t, EndReasonTerminated, history[1].EndReason)
}

func TestHistoryCarriesForwardByAadhaar(t *testing.T) {
	e := newEnv(t)
	first := e.approved("9000000060", "123456789012")
	_, err := e.eng.Terminate(e.ctx, first.ID, e.admin, TerminateInput{Reason: "policy violation"})
	require.NoError(t, err)
	prior := e.reload(first.ID).History()
	require.Len(t, prior, 1)

	e.advance(90 * 24 * time.Hour)
	again := e.readyDraft("9000000061", "123456789012", e.otherOutlet.ID)
	out, err := e.eng.Submit(e.ctx, again.ID)
	require.NoError(t, err)

	inherited := out.History()
	require.Len(t, inherited, 1)
	assert.Equal(t, prior[0].EndReason, inherited[0].EndReason)
	assert.Equal(t, prior[0].TerminationReason, inherited[0].TerminationReason)
	assert.Equal(t, prior[0].Outlet, inherited[0].Outlet)
	assert.True(t, prior[0].EndDate.Equal(inherited[0].EndDate))

	unrelated := e.readyDraft("9000000062", "999999999999", e.outlet.ID)
	out, err = e.eng.Submit(e.ctx, unrelated.ID)
	require.NoError(t, err)
	assert.Empty(t, out.History())
}

func TestHistoryUsesMostRecentTermination(t *testing.T) {
	e := newEnv(t)
	older := e.approved("9000000063", "123412341234")
	_, err := e.eng.Terminate(e.ctx, older.ID, e.admin, TerminateInput{Reason: "first"})
	require.NoError(t, err)

	e.advance(24 * time.Hour)
	newer := e.approved("9000000064", "123412341234")
	_, err = e.eng.Terminate(e.ctx, newer.ID, e.admin, TerminateInput{Reason: "second"})
	require.NoError(t, err)

	e.advance(24 * time.Hour)
	rec := e.readyDraft("9000000065", "123412341234", e.outlet.ID)
	out, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)

	history := out.History()
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].TerminationReason)
	assert.Equal(t, "second", history[1].TerminationReason)
}

func TestDispatchReissuesExpiredLink(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000070", "777788889999", e.outlet.ID)
	_, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)
	first := e.approvalToken(rec.ID)

	e.advance(49 * time.Hour)
	n, err := e.eng.ClearExpiredTokens(e.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Empty(t, e.reload(rec.ID).ApprovalTokenHash)

	_, err = e.eng.DispatchApproval(e.ctx, rec.ID, e.admin)
	require.NoError(t, err)
	second := e.approvalToken(rec.ID)
	assert.NotEqual(t, first, second)

	_, err = e.eng.ApproveByToken(e.ctx, rec.ID, first)
	require.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, err = e.eng.ApproveByToken(e.ctx, rec.ID, second)
	require.NoError(t, err)
}

func TestStaleWriteConflicts(t *testing.T) {
	e := newEnv(t)
	rec := e.readyDraft("9000000077", "777788889999", e.outlet.ID)
	_, err := e.eng.Submit(e.ctx, rec.ID)
	require.NoError(t, err)

	stale := e.reload(rec.ID)
	require.Equal(t, models.StatusPendingApproval, stale.Status)
	_, err = e.eng.Approve(e.ctx, rec.ID, e.coach)
	require.NoError(t, err)

	m := &mutation{status: models.StatusRejected}
	m.set("rejection_reason", "late decision")
	m.emit(models.EventApplicationRejected, nil)
	err = e.db.Transaction(func(tx *gorm.DB) error {
		return e.eng.persist(tx, stale, m, e.otherCoach)
	})
	require.ErrorIs(t, err, apperror.ErrConflict)

	after := e.reload(rec.ID)
	assert.Equal(t, models.StatusApproved, after.Status)
	assert.Nil(t, after.RejectionReason)
	assert.Empty(t, e.events(rec.ID, models.EventApplicationRejected))

	// a write that lands between read and update inside a transition
	_, err = e.eng.transition(e.ctx, transitionRequest{
		id:    rec.ID,
		actor: e.admin,
		roles: []string{models.RoleSuperAdmin},
		guard: func(tx *gorm.DB, cur *models.Onboarding) (*mutation, error) {
			if err := tx.Model(&models.Onboarding{}).Where("id = ?", cur.ID).
				Update("employee_status", models.EmployeeDeactivated).Error; err != nil {
				return nil, err
			}
			return &mutation{employee: models.EmployeeDeactivationPending}, nil
		},
	})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, models.EmployeeActive, e.reload(rec.ID).EmployeeStatus)
}
