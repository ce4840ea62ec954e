package db

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// QuerierOf returns tx when it is set and database otherwise.
func QuerierOf(database Database, tx Transaction) Querier {
	if tx != nil {
		return tx
	}
	return database
}

// IsNoRows checks if the error is sql.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// DuplicateKey reports whether err is a MySQL duplicate entry error and
// returns the violated key name.
func DuplicateKey(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) || myErr.Number != mysqlDuplicateEntry {
		return "", false
	}
	const marker = "for key "
	idx := strings.LastIndex(myErr.Message, marker)
	if idx == -1 {
		return "", true
	}
	key := strings.TrimSpace(myErr.Message[idx+len(marker):])
	return strings.Trim(key, " `\"'"), true
}
