package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Users is the bun backed UserRepository. The Tx variants run on the given
// transaction or connection.
type Users interface {
	UserRepository

	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	FindOneTx(ctx context.Context, tx bun.IDB, criteria SearchUser) (*User, error)
	FindAllTx(ctx context.Context, tx bun.IDB, criteria SearchUser) ([]*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id string) error
	DeleteManyTx(ctx context.Context, tx bun.IDB, criteria SearchUser) (int64, error)
}

type users struct {
	store repository.Repository[*User]
	db    *bun.DB
}

var (
	_ Users          = (*users)(nil)
	_ UserRepository = (*users)(nil)
)

// NewUsersRepository returns a Users repository on db. Call Init before
// first use on an empty database.
func NewUsersRepository(db *bun.DB) Users {
	store := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{
		store: store,
		db:    db,
	}
}

func (a *users) Init(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := a.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return classifyRepoError(err, map[string]any{"step": "create_table"})
	}

	_, err = a.db.NewCreateIndex().
		Model((*User)(nil)).
		Index("users_username_uidx").
		Unique().
		Column("username").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return classifyRepoError(err, map[string]any{"step": "create_index"})
	}

	return nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	if record == nil {
		return nil, NewInvalidSearch("user must not be nil", nil)
	}

	prepareUserDefaults(record)

	created, err := a.store.CreateTx(ctx, tx, record)
	if err != nil {
		return nil, classifyRepoError(err, map[string]any{
			"username": record.Username,
		})
	}

	return created, nil
}

func (a *users) FindOne(ctx context.Context, criteria SearchUser) (*User, error) {
	return a.FindOneTx(ctx, a.db, criteria)
}

func (a *users) FindOneTx(ctx context.Context, tx bun.IDB, criteria SearchUser) (*User, error) {
	if criteria.IsEmpty() {
		return nil, NewNoRowFound(map[string]any{"criteria": "empty"})
	}

	_, isPattern, err := criteria.UsernamePattern()
	if err != nil {
		return nil, err
	}

	if isPattern {
		records, err := a.FindAllTx(ctx, tx, criteria)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, NewNoRowFound(nil)
		}
		return records[0], nil
	}

	record := &User{}
	q := tx.NewSelect().Model(record)
	if err := a.applyFilter(q, criteria); err != nil {
		return nil, err
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		return nil, classifyRepoError(err, nil)
	}

	return record, nil
}

func (a *users) FindAll(ctx context.Context, criteria SearchUser) ([]*User, error) {
	return a.FindAllTx(ctx, a.db, criteria)
}

func (a *users) FindAllTx(ctx context.Context, tx bun.IDB, criteria SearchUser) ([]*User, error) {
	match, err := criteria.Matcher()
	if err != nil {
		return nil, err
	}

	records := []*User{}
	q := tx.NewSelect().Model(&records)
	if err := a.applyFilter(q, criteria); err != nil {
		return nil, err
	}

	if err := q.Order("usr.created_at ASC", "usr.username ASC").Scan(ctx); err != nil {
		return nil, classifyRepoError(err, nil)
	}

	out := make([]*User, 0, len(records))
	for _, record := range records {
		if match(record) {
			out = append(out, record)
		}
	}

	return out, nil
}

func (a *users) Update(ctx context.Context, record *User) (*User, error) {
	return a.UpdateTx(ctx, a.db, record)
}

// UpdateTx writes every column of record, zero values included. The
// username and created_at columns are never rewritten.
func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	if record == nil || record.ID == uuid.Nil {
		return nil, NewInvalidSearch("user id is required", nil)
	}

	if record.RefreshTokens == nil {
		record.RefreshTokens = []string{}
	}

	now := time.Now().UTC()
	record.UpdatedAt = &now

	res, err := tx.NewUpdate().
		Model(record).
		ExcludeColumn("created_at", "username").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, classifyRepoError(err, map[string]any{"id": record.ID.String()})
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, NewNoRowFound(map[string]any{"id": record.ID.String()})
	}

	return record, nil
}

func (a *users) Delete(ctx context.Context, id string) error {
	return a.DeleteTx(ctx, a.db, id)
}

func (a *users) DeleteTx(ctx context.Context, tx bun.IDB, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return NewInvalidSearch("invalid user id", err)
	}

	n, err := a.deleteIDs(ctx, tx, []uuid.UUID{uid})
	if err != nil {
		return err
	}

	if n == 0 {
		return NewNoRowFound(map[string]any{"id": id})
	}

	return nil
}

func (a *users) DeleteMany(ctx context.Context, criteria SearchUser) (int64, error) {
	return a.DeleteManyTx(ctx, a.db, criteria)
}

func (a *users) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria SearchUser) (int64, error) {
	records, err := a.FindAllTx(ctx, tx, criteria)
	if err != nil {
		return 0, err
	}

	if len(records) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}

	return a.deleteIDs(ctx, tx, ids)
}

func (a *users) deleteIDs(ctx context.Context, tx bun.IDB, ids []uuid.UUID) (int64, error) {
	res, err := tx.NewDelete().
		Model((*User)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, classifyRepoError(err, nil)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, classifyRepoError(err, nil)
	}

	return n, nil
}

// applyFilter pushes every filter except username patterns down to SQL
func (a *users) applyFilter(q *bun.SelectQuery, criteria SearchUser) error {
	_, isPattern, err := criteria.UsernamePattern()
	if err != nil {
		return err
	}

	if criteria.Username != nil && !isPattern {
		q.Where("?TableAlias.username = ?", *criteria.Username)
	}

	if len(criteria.Roles) > 0 {
		q.Where("?TableAlias.user_role IN (?)", bun.In(criteria.Roles))
	}

	if criteria.Enabled != nil {
		q.Where("?TableAlias.enabled = ?", *criteria.Enabled)
	}

	if len(criteria.AuthTypes) > 0 {
		q.Where("?TableAlias.auth_type IN (?)", bun.In(criteria.AuthTypes))
	}

	if criteria.Token != nil {
		if err := a.whereHasToken(q, *criteria.Token); err != nil {
			return err
		}
	}

	return nil
}

func (a *users) whereHasToken(q *bun.SelectQuery, token string) error {
	switch a.db.Dialect().Name() {
	case dialect.PG:
		needle, err := json.Marshal([]string{token})
		if err != nil {
			return NewInvalidSearch("invalid token filter", err)
		}
		q.Where("?TableAlias.refresh_tokens @> ?::jsonb", string(needle))
	default:
		q.Where("EXISTS (SELECT 1 FROM json_each(?TableAlias.refresh_tokens) AS t WHERE t.value = ?)", token)
	}
	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.RefreshTokens == nil {
		record.RefreshTokens = []string{}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
