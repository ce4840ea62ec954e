package repository

import (
	"context"
	"errors"
	"time"

	"structcheck/internal/check/kind"
	"structcheck/internal/check/model"
	"structcheck/internal/common/cache"
	"structcheck/internal/common/db"
	appErr "structcheck/pkg/errors"
)

const (
	defaultCodeTTL      = 30 * time.Minute
	defaultCodeEmptyTTL = 5 * time.Minute
	codeKeyPrefix       = "structcheck:code:"
)

// CodeRepository stores the latest submitted source per login and kind.
type CodeRepository interface {
	Latest(ctx context.Context, login string, k kind.Kind) (model.StructureInfo, error)
	Save(ctx context.Context, login string, k kind.Kind, code string) (model.StructureInfo, error)
}

// MySQLCodeRepository keeps submissions in the structure_infos table with a
// read-through Redis cache in front of Latest.
type MySQLCodeRepository struct {
	db       db.Database
	cache    cache.Cache
	ttl      time.Duration
	emptyTTL time.Duration
	now      func() time.Time
}

func NewCodeRepository(database db.Database, cacheClient cache.Cache) *MySQLCodeRepository {
	return NewCodeRepositoryWithTTL(database, cacheClient, defaultCodeTTL, defaultCodeEmptyTTL)
}

func NewCodeRepositoryWithTTL(database db.Database, cacheClient cache.Cache, ttl, emptyTTL time.Duration) *MySQLCodeRepository {
	if ttl <= 0 {
		ttl = defaultCodeTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultCodeEmptyTTL
	}
	return &MySQLCodeRepository{
		db:       database,
		cache:    cacheClient,
		ttl:      ttl,
		emptyTTL: emptyTTL,
		now:      time.Now,
	}
}

// Latest returns the most recently saved source of login for k.
func (r *MySQLCodeRepository) Latest(ctx context.Context, login string, k kind.Kind) (model.StructureInfo, error) {
	if login == "" {
		return model.StructureInfo{}, appErr.ValidationError("login", "required")
	}
	if r.cache == nil {
		return r.latestFromDB(ctx, nil, login, k)
	}
	info, err := r.readThrough().Get(ctx, codeKey(login, k), func(ctx context.Context) (model.StructureInfo, error) {
		info, err := r.latestFromDB(ctx, nil, login, k)
		if appErr.Is(err, appErr.CodeNotFound) {
			return model.StructureInfo{}, nil
		}
		return info, err
	})
	if err != nil {
		return model.StructureInfo{}, err
	}
	if info.ID == 0 {
		return model.StructureInfo{}, codeNotFound(login, k)
	}
	return info, nil
}

// Save upserts the source of login for k and drops the cached copy.
func (r *MySQLCodeRepository) Save(ctx context.Context, login string, k kind.Kind, code string) (model.StructureInfo, error) {
	if login == "" {
		return model.StructureInfo{}, appErr.ValidationError("login", "required")
	}
	if r.db == nil {
		return model.StructureInfo{}, appErr.New(appErr.DatabaseError).WithMessage("database is not configured")
	}
	var saved model.StructureInfo
	write := func(ctx context.Context) error {
		return r.db.Transaction(ctx, func(tx db.Transaction) error {
			info, err := r.upsert(ctx, tx, login, k, code)
			if err != nil {
				return err
			}
			saved = info
			return nil
		})
	}
	var err error
	if r.cache != nil {
		err = r.readThrough().Invalidate(ctx, codeKey(login, k), write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		var appError *appErr.Error
		if errors.As(err, &appError) {
			return model.StructureInfo{}, err
		}
		return model.StructureInfo{}, appErr.Wrapf(err, appErr.CodeSaveFailed, "save code failed")
	}
	return saved, nil
}

func (r *MySQLCodeRepository) upsert(ctx context.Context, tx db.Transaction, login string, k kind.Kind, code string) (model.StructureInfo, error) {
	now := r.now().UTC().Truncate(time.Second)
	info := model.StructureInfo{UserLogin: login, Kind: k, LastSaved: now, Code: code}

	var id int64
	err := tx.QueryRow(ctx,
		"SELECT id FROM structure_infos WHERE user_login = ? AND structure_type = ? FOR UPDATE",
		login, string(k)).Scan(&id)
	switch {
	case err == nil:
		info.ID = id
		return info, r.update(ctx, tx, info)
	case !db.IsNoRows(err):
		return model.StructureInfo{}, err
	}

	result, err := tx.Exec(ctx,
		"INSERT INTO structure_infos (user_login, structure_type, last_saved, code) VALUES (?, ?, ?, ?)",
		login, string(k), now, code)
	if err != nil {
		// A concurrent first save won the insert.
		if _, dup := db.DuplicateKey(err); dup {
			if err := tx.QueryRow(ctx,
				"SELECT id FROM structure_infos WHERE user_login = ? AND structure_type = ?",
				login, string(k)).Scan(&id); err != nil {
				return model.StructureInfo{}, err
			}
			info.ID = id
			return info, r.update(ctx, tx, info)
		}
		return model.StructureInfo{}, err
	}
	if info.ID, err = result.LastInsertId(); err != nil {
		return model.StructureInfo{}, err
	}
	return info, nil
}

func (r *MySQLCodeRepository) update(ctx context.Context, tx db.Transaction, info model.StructureInfo) error {
	_, err := tx.Exec(ctx,
		"UPDATE structure_infos SET code = ?, last_saved = ? WHERE id = ?",
		info.Code, info.LastSaved, info.ID)
	return err
}

func (r *MySQLCodeRepository) latestFromDB(ctx context.Context, tx db.Transaction, login string, k kind.Kind) (model.StructureInfo, error) {
	if r.db == nil {
		return model.StructureInfo{}, appErr.New(appErr.DatabaseError).WithMessage("database is not configured")
	}
	query := "SELECT id, user_login, structure_type, last_saved, code FROM structure_infos WHERE user_login = ? AND structure_type = ? ORDER BY last_saved DESC LIMIT 1"
	var (
		info          model.StructureInfo
		structureType string
	)
	err := db.QuerierOf(r.db, tx).QueryRow(ctx, query, login, string(k)).
		Scan(&info.ID, &info.UserLogin, &structureType, &info.LastSaved, &info.Code)
	if err != nil {
		if db.IsNoRows(err) {
			return model.StructureInfo{}, codeNotFound(login, k)
		}
		return model.StructureInfo{}, appErr.Wrapf(err, appErr.DatabaseError, "load code failed")
	}
	info.Kind = kind.Kind(structureType)
	return info, nil
}

func codeNotFound(login string, k kind.Kind) error {
	return appErr.Newf(appErr.CodeNotFound, "no saved %s code for %s", k, login)
}

func codeKey(login string, k kind.Kind) string {
	return codeKeyPrefix + login + ":" + string(k)
}

func (r *MySQLCodeRepository) readThrough() cache.ReadThrough[model.StructureInfo] {
	return cache.ReadThrough[model.StructureInfo]{
		Cache:    r.cache,
		TTL:      r.ttl,
		EmptyTTL: r.emptyTTL,
		IsEmpty:  func(info model.StructureInfo) bool { return info.ID == 0 },
	}
}
