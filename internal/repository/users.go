package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/deppfellow/go-absl/accessor"
	"github.com/deppfellow/go-absl/internal/errs"
)

const usersTable = "users"

// userColumns are the declared columns of the users table.
var userColumns = []string{"id", "username", "email", "password_hash", "display_name", "created_at"}

// publicUserColumns leaves out the password hash.
var publicUserColumns = []string{"id", "username", "email", "display_name", "created_at"}

// User is a users row without its password hash.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUser is the data stored by Insert.
type NewUser struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// UserPage is one page of users.
type UserPage struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalRows  int64  `json:"total_rows"`
	TotalPages int    `json:"total_pages"`
	Users      []User `json:"users"`
}

// UserRepository stores users through the accessor.
type UserRepository struct {
	table *accessor.Table
}

// NewUserRepository registers the users table on acc.
func NewUserRepository(acc *accessor.Accessor) (*UserRepository, error) {
	if err := acc.DefineTable(usersTable, "id", userColumns...); err != nil {
		return nil, err
	}
	table, err := acc.UseTable(usersTable)
	if err != nil {
		return nil, err
	}
	return &UserRepository{table: table}, nil
}

// Insert stores a new user. An empty DisplayName is stored as NULL.
func (r *UserRepository) Insert(ctx context.Context, u NewUser) error {
	displayName := accessor.Null()
	if u.DisplayName != "" {
		displayName = accessor.Text(u.DisplayName)
	}

	_, err := r.table.Create(ctx, accessor.Values{
		"id":            accessor.Text(u.ID),
		"username":      accessor.Text(u.Username),
		"email":         accessor.Text(u.Email),
		"password_hash": accessor.Text(u.PasswordHash),
		"display_name":  displayName,
		"created_at":    accessor.Text(u.CreatedAt.UTC().Format(time.RFC3339Nano)),
	})
	return err
}

// FindByID returns the user with the given id, or a NotFound error.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	row, err := r.table.Get(ctx, accessor.Text(id), publicUserColumns...)
	if err != nil {
		return nil, err
	}
	return userOrNotFound("repository.users.find_by_id", row)
}

// FindByUsername returns the user with the given username, or a NotFound error.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	row, err := r.table.Fetch(ctx, publicUserColumns, "username", accessor.Text(username))
	if err != nil {
		return nil, err
	}
	return userOrNotFound("repository.users.find_by_username", row)
}

// UsernameTaken reports whether a user already has username.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.table.CheckDuplicate(ctx, "username", accessor.Text(username))
}

// EmailTaken reports whether a user already has email.
func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.table.CheckDuplicate(ctx, "email", accessor.Text(email))
}

// VerifyPassword reports whether password matches the stored hash of username.
func (r *UserRepository) VerifyPassword(ctx context.Context, username, password string) (bool, error) {
	return r.table.Authenticate(ctx,
		accessor.Credential{Column: "username", Value: accessor.Text(username)},
		accessor.Credential{Column: "password_hash", Value: accessor.Text(password)},
	)
}

// UpdateDisplayName sets the display name and returns the rows changed.
func (r *UserRepository) UpdateDisplayName(ctx context.Context, id, displayName string) (int64, error) {
	return r.table.Update(ctx, accessor.Values{"display_name": accessor.Text(displayName)}, "id", accessor.Text(id))
}

// Delete removes the user and returns the rows removed.
func (r *UserRepository) Delete(ctx context.Context, id string) (int64, error) {
	return r.table.Delete(ctx, "id", accessor.Text(id))
}

// Page returns page n of the users ordered by id. A size below 1 uses
// the accessor's default page size.
func (r *UserRepository) Page(ctx context.Context, n, size int) (*UserPage, error) {
	page, err := r.table.WithPageRowCount(size).Paginate(ctx, n, publicUserColumns...)
	if err != nil {
		return nil, err
	}

	users, err := usersFromRows("repository.users.page", page.Rows)
	if err != nil {
		return nil, err
	}
	return &UserPage{
		Page:       page.Number,
		PageSize:   page.Size,
		TotalRows:  page.TotalRows,
		TotalPages: page.TotalPages,
		Users:      users,
	}, nil
}

// SearchByUsername returns the users whose username starts with prefix.
// prefix is matched literally.
func (r *UserRepository) SearchByUsername(ctx context.Context, prefix string) ([]User, error) {
	rows, err := r.table.Search(ctx, regexp.QuoteMeta(prefix), "username")
	if err != nil {
		return nil, err
	}
	return usersFromRows("repository.users.search", rows)
}

func userOrNotFound(op string, row *ordereddict.Dict) (*User, error) {
	if row == nil {
		return nil, errs.NewNotFoundError(op, "user not found")
	}
	u, err := userFromRow(op, row)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func usersFromRows(op string, rows []*ordereddict.Dict) ([]User, error) {
	users := make([]User, 0, len(rows))
	for _, row := range rows {
		u, err := userFromRow(op, row)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func userFromRow(op string, row *ordereddict.Dict) (User, error) {
	u := User{
		ID:       text(row, "id"),
		Username: text(row, "username"),
		Email:    text(row, "email"),
	}

	if name, ok := row.Get("display_name"); ok && name != nil {
		s := fmt.Sprint(name)
		u.DisplayName = &s
	}

	createdAt, err := time.Parse(time.RFC3339Nano, text(row, "created_at"))
	if err != nil {
		return User{}, errs.Wrap(errs.KindSerialization, op, err, "stored created_at is not a timestamp")
	}
	u.CreatedAt = createdAt
	return u, nil
}

// text reads a column as a string; rows carry strings for text columns.
func text(row *ordereddict.Dict, key string) string {
	v, ok := row.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
