// Package repository holds the data access layer: gorm repositories for the
// credential store and go-redis repositories for the profile cache, the
// deleted-user archive and verification codes.
//
// Driver errors never leave this package raw. They are translated into the
// sentinels below so that services and handlers can branch with errors.Is.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means the record does not exist in the store that was asked.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is a unique-constraint violation (email, card number, role name…).
	ErrConflict = errors.New("record already exists")
	// ErrIntegrity is a foreign-key / integrity violation.
	ErrIntegrity = errors.New("integrity constraint violated")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// translate maps gorm / driver errors onto the package sentinels, keeping
// the original error in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrIntegrity, pgErr.ConstraintName)
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %s", ErrConflict, myErr.Message)
		case mysqlRowIsReferenced, mysqlNoReferencedRow:
			return fmt.Errorf("%w: %s", ErrIntegrity, myErr.Message)
		}
	}
	return err
}

// IsConflict reports whether err is a uniqueness violation after translation.
func IsConflict(err error) bool { return errors.Is(translate(err), ErrConflict) }
