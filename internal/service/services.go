package service

import (
	"github.com/deppfellow/go-absl/internal/app"
	"github.com/deppfellow/go-absl/internal/repository"
)

type Services struct {
	Users *UserService
}

func NewServices(a *app.App, repos *repository.Repositories) *Services {
	return &Services{
		Users: NewUserService(a, repos.Users),
	}
}
