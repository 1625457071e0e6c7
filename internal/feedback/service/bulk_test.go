package service

import (
	"context"
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

type BulkCreateSuite struct {
	suite.Suite

	ctx      context.Context
	service  *Service
	feedback *store.InMemoryStore
	dir      *directory.InMemoryDirectory
	manager  domain.Principal
	teamIDs  []domain.UserID
	departed domain.UserID
	outsider domain.UserID
}

func TestBulkCreateSuite(t *testing.T) {
	suite.Run(t, new(BulkCreateSuite))
}

func (s *BulkCreateSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(),
		time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	s.manager = domain.Principal{ID: domain.NewUserID(), Role: domain.RoleManager}
	s.teamIDs = []domain.UserID{domain.NewUserID(), domain.NewUserID(), domain.NewUserID()}
	s.departed = domain.NewUserID()
	s.outsider = domain.NewUserID()

	s.dir = directory.NewInMemoryDirectory()
	s.dir.AddTeam(directory.Team{
		ID:          domain.NewTeamID(),
		ManagerID:   s.manager.ID,
		EmployeeIDs: append(append([]domain.UserID{}, s.teamIDs...), s.departed),
		Active:      true,
	})
	s.dir.AddEmployee(s.departed, false)
	s.dir.AddEmployee(s.outsider, true)

	s.feedback = store.NewInMemoryStore()
	stores := Stores{Feedback: s.feedback, Audit: audit.NewInMemoryStore()}
	s.service = New(stores, scope.NewResolver(s.dir), nil)
}

func (s *BulkCreateSuite) entryFor(employeeID domain.UserID) models.BulkEntry {
	return models.BulkEntry{
		EmployeeID:     employeeID.String(),
		Strengths:      "consistent delivery",
		AreasToImprove: "share context earlier",
		Sentiment:      models.SentimentNeutral,
	}
}

func (s *BulkCreateSuite) countStored() int {
	_, total, err := s.feedback.List(s.ctx, models.ListQuery{Page: 1, Limit: 50, Filter: models.ListFilter{IncludeDeleted: true}})
	s.Require().NoError(err)
	return total
}

func (s *BulkCreateSuite) TestBulkCreateCommitsWholeBatch() {
	entries := []models.BulkEntry{
		s.entryFor(s.teamIDs[0]),
		s.entryFor(s.teamIDs[1]),
		s.entryFor(s.teamIDs[2]),
	}

	result, err := s.service.BulkCreate(s.ctx, s.manager, entries)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3, result.CreatedCount)
	require.Len(s.T(), result.Records, 3)
	for _, record := range result.Records {
		assert.Equal(s.T(), 1, record.Version)
		assert.Equal(s.T(), s.manager.ID, record.ManagerID)
	}
	assert.Equal(s.T(), 3, s.countStored())
}

func (s *BulkCreateSuite) TestBulkCreateRequiresManagerRole() {
	employee := domain.Principal{ID: s.teamIDs[0], Role: domain.RoleEmployee}
	_, err := s.service.BulkCreate(s.ctx, employee, []models.BulkEntry{s.entryFor(s.teamIDs[1])})
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *BulkCreateSuite) TestBulkCreateRejectsInactiveEmployee() {
	entries := []models.BulkEntry{
		s.entryFor(s.teamIDs[0]),
		s.entryFor(s.departed),
	}

	_, err := s.service.BulkCreate(s.ctx, s.manager, entries)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeValidation))
	// All-or-nothing: the valid entry was not persisted either.
	assert.Equal(s.T(), 0, s.countStored())
}

func (s *BulkCreateSuite) TestBulkCreateRejectsUnmanagedEmployee() {
	entries := []models.BulkEntry{
		s.entryFor(s.teamIDs[0]),
		s.entryFor(s.outsider),
	}

	_, err := s.service.BulkCreate(s.ctx, s.manager, entries)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeForbidden))
	assert.Equal(s.T(), 0, s.countStored())
}

func (s *BulkCreateSuite) TestBulkCreateRejectsInBatchDuplicates() {
	entries := []models.BulkEntry{
		s.entryFor(s.teamIDs[0]),
		s.entryFor(s.teamIDs[0]),
	}

	_, err := s.service.BulkCreate(s.ctx, s.manager, entries)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Equal(s.T(), 0, s.countStored())
}

func (s *BulkCreateSuite) TestBulkCreateRejectsRecentDuplicateWindow() {
	_, err := s.service.Create(s.ctx, s.manager, CreateRequest{
		EmployeeID:     s.teamIDs[0],
		Strengths:      "a",
		AreasToImprove: "b",
		Sentiment:      models.SentimentPositive,
	})
	require.NoError(s.T(), err)

	// A batch naming the same employee within the window is rejected whole.
	entries := []models.BulkEntry{
		s.entryFor(s.teamIDs[0]),
		s.entryFor(s.teamIDs[1]),
	}
	_, err = s.service.BulkCreate(s.ctx, s.manager, entries)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Equal(s.T(), 1, s.countStored())

	// Outside the window the same batch goes through.
	later := requestcontext.WithTime(context.Background(),
		requestcontext.Now(s.ctx).Add(25*time.Hour))
	result, err := s.service.BulkCreate(later, s.manager, entries)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, result.CreatedCount)
}

func (s *BulkCreateSuite) TestBulkCreateCustomWindow() {
	shortWindow := New(
		Stores{Feedback: s.feedback, Audit: audit.NewInMemoryStore()},
		scope.NewResolver(s.dir),
		nil,
		WithDuplicateWindow(time.Minute),
	)

	_, err := shortWindow.Create(s.ctx, s.manager, CreateRequest{
		EmployeeID:     s.teamIDs[0],
		Strengths:      "a",
		AreasToImprove: "b",
		Sentiment:      models.SentimentPositive,
	})
	require.NoError(s.T(), err)

	later := requestcontext.WithTime(context.Background(),
		requestcontext.Now(s.ctx).Add(2*time.Minute))
	result, err := shortWindow.BulkCreate(later, s.manager, []models.BulkEntry{s.entryFor(s.teamIDs[0])})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, result.CreatedCount)
}
