package auth

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager owns the bun backed repositories and their schema
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Init(ctx context.Context) error
	Users() Users
}

type manager struct {
	db    *bun.DB
	users Users
}

// NewRepositoryManager wires every repository on db
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	m := &manager{db: db}
	if db != nil {
		m.users = NewUsersRepository(db)
	}
	return m
}

func (m *manager) Validate() error {
	switch {
	case m.db == nil:
		return errors.New("repository database is not set", errors.CategoryInternal).
			WithTextCode(TextCodeRepository)
	case m.users == nil:
		return errors.New("users repository is not set", errors.CategoryInternal).
			WithTextCode(TextCodeRepository)
	}
	return nil
}

func (m *manager) MustValidate() {
	if err := m.Validate(); err != nil {
		panic(err)
	}
}

// Init creates tables and indexes, it is safe to run on every start
func (m *manager) Init(ctx context.Context) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return m.users.Init(ctx)
}

func (m *manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.db.RunInTx(ctx, opts, f)
}

func (m *manager) Users() Users {
	return m.users
}
