// Package repository handles all interactions with the database.
//
// Repositories register their tables on the application's accessor and
// translate accessor rows into typed records, keeping SQL concerns away
// from the service layer.
package repository

import (
	"github.com/deppfellow/go-absl/internal/app"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Users *UserRepository
}

// NewRepositories registers every table on a.Accessor and constructs
// the repositories.
func NewRepositories(a *app.App) (*Repositories, error) {
	users, err := NewUserRepository(a.Accessor)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Users: users,
	}, nil
}
