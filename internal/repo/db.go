package repo

import (
	"GophDrive/internal/model"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// defaultSQLiteDSN используется, если строка подключения не задана.
const defaultSQLiteDSN = "file:gophdrive.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// InitDB открывает соединение с БД и применяет миграции моделей.
// Строки вида postgres://... или "host=... user=..." открываются через драйвер PostgreSQL,
// всё остальное считается DSN для SQLite (modernc).
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(Dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Dialector выбирает диалект gorm по строке подключения.
func Dialector(dsn string) gorm.Dialector {
	d := strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(d, "postgres://"), strings.HasPrefix(d, "postgresql://"), strings.Contains(d, "host="):
		return postgres.Open(d)
	case d == "":
		return gormsqlite.Dialector{DriverName: "sqlite", DSN: defaultSQLiteDSN}
	default:
		return gormsqlite.Dialector{DriverName: "sqlite", DSN: d}
	}
}

// Migrate создаёт/обновляет таблицы для всех моделей хранилища.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Folder{}, &model.File{}, &model.OrphanBlob{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// isUniqueViolation распознаёт нарушение уникального индекса в PostgreSQL и SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	return errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
