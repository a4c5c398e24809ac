package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deppfellow/go-absl/accessor"
	"github.com/deppfellow/go-absl/internal/app"
	"github.com/deppfellow/go-absl/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

type UserRepositorySuite struct {
	suite.Suite

	ctx   context.Context
	app   *app.App
	users *UserRepository
}

func TestUserRepositorySuite(t *testing.T) {
	suite.Run(t, new(UserRepositorySuite))
}

func (s *UserRepositorySuite) SetupTest() {
	s.ctx = context.Background()

	cfg := config.Default()
	cfg.Database.Path = ":memory:"
	cfg.Accessor.PageRowCount = 2
	logger := zerolog.Nop()

	a, err := app.New(s.ctx, cfg, &logger, nil)
	s.Require().NoError(err)
	s.Require().NoError(a.Migrate(s.ctx))
	s.app = a

	repos, err := NewRepositories(a)
	s.Require().NoError(err)
	s.users = repos.Users
}

func (s *UserRepositorySuite) TearDownTest() {
	s.Require().NoError(s.app.Shutdown())
}

func (s *UserRepositorySuite) insert(id, username string) {
	hash, err := accessor.HashSecret("password-" + username)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Insert(s.ctx, NewUser{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC),
	}))
}

func (s *UserRepositorySuite) TestRegistersTable() {
	def, err := s.app.Accessor.Definition("users")
	s.Require().NoError(err)
	s.Equal("id", def.PrimaryKey)
	s.Equal(userColumns, def.Columns)
}

func (s *UserRepositorySuite) TestInsertAndFind() {
	s.insert("u1", "alice")

	u, err := s.users.FindByID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("alice", u.Username)
	s.Equal("alice@example.com", u.Email)
	s.Nil(u.DisplayName)
	s.Equal(time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC), u.CreatedAt)

	u, err = s.users.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("u1", u.ID)

	_, err = s.users.FindByID(s.ctx, "missing")
	s.True(errors.Is(err, accessor.ErrNotFound))
}

func (s *UserRepositorySuite) TestTakenChecks() {
	s.insert("u1", "alice")

	taken, err := s.users.UsernameTaken(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(taken)

	taken, err = s.users.EmailTaken(s.ctx, "bob@example.com")
	s.Require().NoError(err)
	s.False(taken)
}

func (s *UserRepositorySuite) TestVerifyPassword() {
	s.insert("u1", "alice")

	ok, err := s.users.VerifyPassword(s.ctx, "alice", "password-alice")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.users.VerifyPassword(s.ctx, "alice", "nope")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *UserRepositorySuite) TestUpdateAndDelete() {
	s.insert("u1", "alice")

	n, err := s.users.UpdateDisplayName(s.ctx, "u1", "Alice A.")
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	u, err := s.users.FindByID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().NotNil(u.DisplayName)
	s.Equal("Alice A.", *u.DisplayName)

	n, err = s.users.Delete(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	n, err = s.users.Delete(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(int64(0), n)
}

func (s *UserRepositorySuite) TestPage() {
	s.insert("u1", "alice")
	s.insert("u2", "bob")
	s.insert("u3", "carol")

	page, err := s.users.Page(s.ctx, 5, 0)
	s.Require().NoError(err)
	s.Equal(2, page.Page)
	s.Equal(2, page.PageSize)
	s.Equal(int64(3), page.TotalRows)
	s.Require().Len(page.Users, 1)
	s.Equal("carol", page.Users[0].Username)

	page, err = s.users.Page(s.ctx, 1, 3)
	s.Require().NoError(err)
	s.Len(page.Users, 3)
}

func (s *UserRepositorySuite) TestSearchByUsernameIsLiteral() {
	s.insert("u1", "alice")
	s.insert("u2", "albert")
	s.insert("u3", "bob")

	users, err := s.users.SearchByUsername(s.ctx, "al")
	s.Require().NoError(err)
	s.Len(users, 2)

	users, err = s.users.SearchByUsername(s.ctx, ".*")
	s.Require().NoError(err)
	s.Empty(users)
}
