//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"teampulse/internal/feedback/models"
	"teampulse/pkg/domain"
	"teampulse/pkg/platform/sentinel"
	"teampulse/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx       context.Context
	container *containers.PostgresContainer
	store     *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.container = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.container.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	require.NoError(s.T(), s.container.TruncateAll(s.ctx))
}

func (s *PostgresStoreSuite) newRecord(managerID, employeeID domain.UserID, createdAt time.Time) *models.Record {
	record, err := models.NewRecord(domain.NewFeedbackID(), managerID, employeeID,
		"strengths", "areas", models.SentimentPositive, createdAt)
	require.NoError(s.T(), err)
	return record
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	record := s.newRecord(domain.NewUserID(), domain.NewUserID(), time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(s.T(), s.store.Create(s.ctx, record))

	found, err := s.store.FindByID(s.ctx, record.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), record.ID, found.ID)
	assert.Equal(s.T(), 1, found.Version)
	assert.Nil(s.T(), found.AcknowledgedAt)
}

func (s *PostgresStoreSuite) TestDuplicateInsertConflicts() {
	record := s.newRecord(domain.NewUserID(), domain.NewUserID(), time.Now().UTC())
	require.NoError(s.T(), s.store.Create(s.ctx, record))
	assert.ErrorIs(s.T(), s.store.Create(s.ctx, record), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateCompareAndSwap() {
	record := s.newRecord(domain.NewUserID(), domain.NewUserID(), time.Now().UTC())
	require.NoError(s.T(), s.store.Create(s.ctx, record))

	winner := record.Clone()
	winner.Strengths = "winner"
	winner.Version = 2
	winner.UpdatedAt = time.Now().UTC()
	require.NoError(s.T(), s.store.Update(s.ctx, winner, 1))

	loser := record.Clone()
	loser.Strengths = "loser"
	loser.Version = 2
	assert.ErrorIs(s.T(), s.store.Update(s.ctx, loser, 1), sentinel.ErrConflict)

	final, err := s.store.FindByID(s.ctx, record.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "winner", final.Strengths)
	assert.Equal(s.T(), 2, final.Version)
}

func (s *PostgresStoreSuite) TestCreateManyIsAtomic() {
	existing := s.newRecord(domain.NewUserID(), domain.NewUserID(), time.Now().UTC())
	require.NoError(s.T(), s.store.Create(s.ctx, existing))

	fresh := s.newRecord(domain.NewUserID(), domain.NewUserID(), time.Now().UTC())
	err := s.store.CreateMany(s.ctx, []*models.Record{fresh, existing})
	assert.ErrorIs(s.T(), err, sentinel.ErrConflict)

	_, err = s.store.FindByID(s.ctx, fresh.ID)
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExistsRecentByManager() {
	managerID := domain.NewUserID()
	employeeID := domain.NewUserID()
	createdAt := time.Now().UTC()
	require.NoError(s.T(), s.store.Create(s.ctx, s.newRecord(managerID, employeeID, createdAt)))

	recent, err := s.store.ExistsRecentByManager(s.ctx, managerID, employeeID, createdAt.Add(-time.Hour))
	require.NoError(s.T(), err)
	assert.True(s.T(), recent)

	recent, err = s.store.ExistsRecentByManager(s.ctx, managerID, employeeID, createdAt.Add(time.Hour))
	require.NoError(s.T(), err)
	assert.False(s.T(), recent)
}

func (s *PostgresStoreSuite) TestListFiltersAndPaginates() {
	managerID := domain.NewUserID()
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 4; i++ {
		record := s.newRecord(managerID, domain.NewUserID(), base.Add(time.Duration(i)*time.Minute))
		require.NoError(s.T(), s.store.Create(s.ctx, record))
	}
	require.NoError(s.T(), s.store.Create(s.ctx,
		s.newRecord(domain.NewUserID(), domain.NewUserID(), base)))

	query := models.ListQuery{
		Filter:   models.ListFilter{ManagerID: managerID},
		SortBy:   models.SortByCreatedAt,
		SortDesc: true,
		Page:     1,
		Limit:    3,
	}
	records, total, err := s.store.List(s.ctx, query)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 4, total)
	require.Len(s.T(), records, 3)
	assert.True(s.T(), records[0].CreatedAt.After(records[1].CreatedAt))

	query.Page = 2
	records, total, err = s.store.List(s.ctx, query)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 4, total)
	assert.Len(s.T(), records, 1)
}
