package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"teampulse/internal/audit"
	"teampulse/internal/directory"
	"teampulse/internal/feedback/models"
	"teampulse/internal/feedback/scope"
	"teampulse/internal/feedback/store"
	"teampulse/pkg/domain"
	dErrors "teampulse/pkg/domain-errors"
	"teampulse/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite

	ctx        context.Context
	service    *Service
	feedback   *store.InMemoryStore
	audit      *audit.InMemoryStore
	dir        *directory.InMemoryDirectory
	manager    domain.Principal
	employee   domain.Principal
	admin      domain.Principal
	otherMgr   domain.Principal
	outsideEmp domain.Principal
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(),
		time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	s.manager = domain.Principal{ID: domain.NewUserID(), Role: domain.RoleManager}
	s.employee = domain.Principal{ID: domain.NewUserID(), Role: domain.RoleEmployee}
	s.admin = domain.Principal{ID: domain.NewUserID(), Role: domain.RoleAdmin}
	s.otherMgr = domain.Principal{ID: domain.NewUserID(), Role: domain.RoleManager}
	s.outsideEmp = domain.Principal{ID: domain.NewUserID(), Role: domain.RoleEmployee}

	s.dir = directory.NewInMemoryDirectory()
	s.dir.AddTeam(directory.Team{
		ID:          domain.NewTeamID(),
		ManagerID:   s.manager.ID,
		EmployeeIDs: []domain.UserID{s.employee.ID},
		Active:      true,
	})
	s.dir.AddEmployee(s.outsideEmp.ID, true)

	s.feedback = store.NewInMemoryStore()
	s.audit = audit.NewInMemoryStore()
	stores := Stores{Feedback: s.feedback, Audit: s.audit}
	s.service = New(stores, scope.NewResolver(s.dir), nil)
}

func (s *ServiceSuite) createRecord() *models.Record {
	record, err := s.service.Create(s.ctx, s.manager, CreateRequest{
		EmployeeID:     s.employee.ID,
		Strengths:      "clear communicator",
		AreasToImprove: "delegate more",
		Sentiment:      models.SentimentPositive,
	})
	s.Require().NoError(err)
	return record
}

func (s *ServiceSuite) TestCreate() {
	record := s.createRecord()

	assert.Equal(s.T(), 1, record.Version)
	assert.Equal(s.T(), s.manager.ID, record.ManagerID)
	assert.Equal(s.T(), s.employee.ID, record.EmployeeID)
	assert.False(s.T(), record.Acknowledged)

	stored, err := s.feedback.FindByID(s.ctx, record.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), record.ID, stored.ID)
}

func (s *ServiceSuite) TestCreateRequiresManagerRole() {
	for _, principal := range []domain.Principal{s.employee, s.admin} {
		_, err := s.service.Create(s.ctx, principal, CreateRequest{
			EmployeeID:     s.employee.ID,
			Strengths:      "x",
			AreasToImprove: "y",
			Sentiment:      models.SentimentNeutral,
		})
		assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeForbidden))
	}
}

func (s *ServiceSuite) TestCreateRejectsEmployeeOutsideManagedTeams() {
	_, err := s.service.Create(s.ctx, s.manager, CreateRequest{
		EmployeeID:     s.outsideEmp.ID,
		Strengths:      "x",
		AreasToImprove: "y",
		Sentiment:      models.SentimentNeutral,
	})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestCreateValidatesContent() {
	_, err := s.service.Create(s.ctx, s.manager, CreateRequest{
		EmployeeID:     s.employee.ID,
		Strengths:      "",
		AreasToImprove: "y",
		Sentiment:      models.SentimentNeutral,
	})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestEditAppendsAuditEntry() {
	record := s.createRecord()

	strengths := "mentors juniors well"
	updated, err := s.service.Edit(s.ctx, s.manager, record.ID, models.EditPatch{Strengths: &strengths})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, updated.Version)
	assert.Equal(s.T(), strengths, updated.Strengths)

	entries, err := s.audit.ListByFeedback(s.ctx, record.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1)
	entry := entries[0]
	assert.Equal(s.T(), record.ID, entry.FeedbackID)
	assert.Equal(s.T(), s.manager.ID, entry.EditedBy)
	assert.Equal(s.T(), "edited fields: strengths", entry.EditReason)
	// The snapshot holds the pre-edit values.
	assert.Equal(s.T(), "clear communicator", entry.Previous.Strengths)
	assert.Equal(s.T(), 1, entry.Previous.Version)
}

func (s *ServiceSuite) TestEditRejectsEmptyPatch() {
	record := s.createRecord()
	_, err := s.service.Edit(s.ctx, s.manager, record.ID, models.EditPatch{})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Equal(s.T(), 0, s.audit.CountByFeedback(record.ID))
}

func (s *ServiceSuite) TestEditByNonOwnerIsNotFound() {
	record := s.createRecord()
	strengths := "x"
	_, err := s.service.Edit(s.ctx, s.otherMgr, record.ID, models.EditPatch{Strengths: &strengths})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestEditMissingRecordIsNotFound() {
	strengths := "x"
	_, err := s.service.Edit(s.ctx, s.manager, domain.NewFeedbackID(), models.EditPatch{Strengths: &strengths})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestConcurrentEditsSerialize() {
	record := s.createRecord()

	const editors = 8
	var wg sync.WaitGroup
	for i := 0; i < editors; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			strengths := "concurrent edit"
			_, err := s.service.Edit(s.ctx, s.manager, record.ID, models.EditPatch{Strengths: &strengths})
			assert.NoError(s.T(), err)
		}()
	}
	wg.Wait()

	final, err := s.feedback.FindByID(s.ctx, record.ID)
	require.NoError(s.T(), err)
	// Every edit committed exactly once: the version chain has no gaps and no
	// lost updates.
	assert.Equal(s.T(), 1+editors, final.Version)
	assert.Equal(s.T(), editors, s.audit.CountByFeedback(record.ID))
}

func (s *ServiceSuite) TestStaleVersionLosesRace() {
	record := s.createRecord()

	// A concurrent writer commits version 2 behind this caller's back.
	shadow := record.Clone()
	shadow.ApplyEdit(models.EditPatch{Strengths: strPtr("first writer")}, time.Now())
	require.NoError(s.T(), s.feedback.Update(s.ctx, shadow, 1))

	// The stale caller's CAS on version 1 must fail.
	stale := record.Clone()
	stale.ApplyEdit(models.EditPatch{Strengths: strPtr("second writer")}, time.Now())
	err := s.feedback.Update(s.ctx, stale, 1)
	require.Error(s.T(), err)

	translated := translateStoreErr(err, "failed to update feedback")
	assert.True(s.T(), dErrors.HasCode(translated, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestAcknowledge() {
	record := s.createRecord()

	updated, err := s.service.Acknowledge(s.ctx, s.employee, record.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), updated.Acknowledged)
	require.NotNil(s.T(), updated.AcknowledgedAt)
	assert.Equal(s.T(), 2, updated.Version)
	// Acknowledgment leaves no audit entry; the trail is content edits only.
	assert.Equal(s.T(), 0, s.audit.CountByFeedback(record.ID))
}

func (s *ServiceSuite) TestAcknowledgeTwiceIsConflict() {
	record := s.createRecord()
	_, err := s.service.Acknowledge(s.ctx, s.employee, record.ID)
	require.NoError(s.T(), err)

	_, err = s.service.Acknowledge(s.ctx, s.employee, record.ID)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestAcknowledgeByWrongPrincipalIsNotFound() {
	record := s.createRecord()

	for _, principal := range []domain.Principal{s.manager, s.outsideEmp, s.admin} {
		_, err := s.service.Acknowledge(s.ctx, principal, record.ID)
		assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
	}
}

func (s *ServiceSuite) TestSoftDeleteBeforeAcknowledgmentIsConflict() {
	record := s.createRecord()
	_, err := s.service.SoftDelete(s.ctx, s.manager, record.ID)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestSoftDeleteAndRestore() {
	record := s.createRecord()
	_, err := s.service.Acknowledge(s.ctx, s.employee, record.ID)
	require.NoError(s.T(), err)

	deleted, err := s.service.SoftDelete(s.ctx, s.manager, record.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), deleted.Deleted)
	require.NotNil(s.T(), deleted.DeletedAt)
	assert.Equal(s.T(), 3, deleted.Version)

	// Deleting again reports not-found, matching invisible-when-deleted reads.
	_, err = s.service.SoftDelete(s.ctx, s.manager, record.ID)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))

	// Edits against the deleted record are also not-found.
	_, err = s.service.Edit(s.ctx, s.manager, record.ID, models.EditPatch{Strengths: strPtr("x")})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))

	restored, err := s.service.Restore(s.ctx, s.manager, record.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), restored.Deleted)
	assert.Nil(s.T(), restored.DeletedAt)
	assert.True(s.T(), restored.Acknowledged)
	assert.Equal(s.T(), 4, restored.Version)

	// Edits work again after restore.
	updated, err := s.service.Edit(s.ctx, s.manager, record.ID, models.EditPatch{Strengths: strPtr("back in play")})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 5, updated.Version)
}

func (s *ServiceSuite) TestRestoreNonDeletedIsNotFound() {
	record := s.createRecord()
	_, err := s.service.Restore(s.ctx, s.manager, record.ID)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListScoping() {
	mine := s.createRecord()

	// A record by another manager for another employee.
	other, err := models.NewRecord(domain.NewFeedbackID(), s.otherMgr.ID, s.outsideEmp.ID,
		"a", "b", models.SentimentNegative, requestcontext.Now(s.ctx))
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.feedback.Create(s.ctx, other))

	adminPage, err := s.service.List(s.ctx, s.admin, models.ListQuery{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, adminPage.TotalCount)

	managerPage, err := s.service.List(s.ctx, s.manager, models.ListQuery{})
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, managerPage.TotalCount)
	assert.Equal(s.T(), mine.ID, managerPage.Items[0].ID)

	employeePage, err := s.service.List(s.ctx, s.employee, models.ListQuery{})
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, employeePage.TotalCount)
	assert.Equal(s.T(), mine.ID, employeePage.Items[0].ID)
}

func (s *ServiceSuite) TestListHidesDeletedFromEmployees() {
	record := s.createRecord()
	_, err := s.service.Acknowledge(s.ctx, s.employee, record.ID)
	require.NoError(s.T(), err)
	_, err = s.service.SoftDelete(s.ctx, s.manager, record.ID)
	require.NoError(s.T(), err)

	// Even an explicit include_deleted request is overridden for employees.
	page, err := s.service.List(s.ctx, s.employee, models.ListQuery{
		Filter: models.ListFilter{IncludeDeleted: true},
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0, page.TotalCount)

	// The authoring manager still sees it when asking for deleted records.
	page, err = s.service.List(s.ctx, s.manager, models.ListQuery{
		Filter: models.ListFilter{IncludeDeleted: true},
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, page.TotalCount)
}

func (s *ServiceSuite) TestGetHistory() {
	record := s.createRecord()
	_, err := s.service.Edit(s.ctx, s.manager, record.ID, models.EditPatch{Strengths: strPtr("v2")})
	require.NoError(s.T(), err)
	_, err = s.service.Edit(s.ctx, s.manager, record.ID, models.EditPatch{Strengths: strPtr("v3")})
	require.NoError(s.T(), err)

	history, err := s.service.GetHistory(s.ctx, s.manager, record.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3, history.Record.Version)
	require.Len(s.T(), history.Entries, 2)

	// The employee may read the same history; an unrelated manager may not.
	_, err = s.service.GetHistory(s.ctx, s.employee, record.ID)
	assert.NoError(s.T(), err)
	_, err = s.service.GetHistory(s.ctx, s.otherMgr, record.ID)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDeleteAuditEntries() {
	record := s.createRecord()
	_, err := s.service.Edit(s.ctx, s.manager, record.ID, models.EditPatch{Strengths: strPtr("v2")})
	require.NoError(s.T(), err)

	entries, err := s.audit.ListByFeedback(s.ctx, record.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1)

	ids := []domain.EntryID{entries[0].ID, domain.NewEntryID()}

	_, err = s.service.DeleteAuditEntries(s.ctx, s.manager, ids)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.DeleteAuditEntries(s.ctx, s.admin, nil)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeValidation))

	deleted, err := s.service.DeleteAuditEntries(s.ctx, s.admin, ids)
	require.NoError(s.T(), err)
	// Unknown ids are skipped, not errors.
	assert.Equal(s.T(), 1, deleted)
	assert.Equal(s.T(), 0, s.audit.CountByFeedback(record.ID))
}

func strPtr(v string) *string { return &v }
