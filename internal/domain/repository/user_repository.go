package repository

import (
	"context"

	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
)

// UserRepository operadores y vendedores.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByLogin(ctx context.Context, login string) (*entity.User, error)
}
