package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/volatiletech/sqlboiler/v4/boil"

	"github.com/trezcool/gradebook/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func dsn(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")
	if timeout := conf.Database.ConnectTimeout; timeout > 0 {
		secs := int(timeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open returns a lazily connected handle; no connection is made until the first query.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open(conf.Database.Engine, dsn(conf.Database.Name, false, conf))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB, maxAttempts int) error {
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func exists(db *sqlx.DB, query, name string) (bool, error) {
	var found bool
	if err := db.Get(&found, query, name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return found, nil
}

// CreateIfNotExist connects as the admin user and creates the application role and database when missing.
func CreateIfNotExist(conf *core.Config) error {
	admin, err := sqlx.Open(conf.Database.Engine, dsn("postgres", true, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = admin.Close() }()

	if err = ping(admin, 10); err != nil {
		return errors.Wrap(err, "pinging database")
	}

	if conf.Database.AdminUser != "" && conf.Database.AdminUser != conf.Database.User {
		found, err := exists(admin, "SELECT true FROM pg_roles WHERE rolname = $1", conf.Database.User)
		if err != nil {
			return errors.Wrap(err, "checking app user")
		}
		if !found {
			q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD %s",
				pq.QuoteIdentifier(conf.Database.User), pq.QuoteLiteral(conf.Database.Password))
			if _, err = admin.Exec(q); err != nil {
				return errors.Wrap(err, "creating app user")
			}
		}
	}

	found, err := exists(admin, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking database")
	}
	if !found {
		q := fmt.Sprintf("CREATE DATABASE %s OWNER %s",
			pq.QuoteIdentifier(conf.Database.Name), pq.QuoteIdentifier(conf.Database.User))
		if _, err = admin.Exec(q); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// gooseLogger routes goose output to a core.Logger.
type gooseLogger struct {
	logger core.Logger
}

func (l gooseLogger) Fatal(v ...interface{})                 { l.logger.Fatal(fmt.Sprint(v...)) }
func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.logger.Fatal(fmt.Sprintf(format, v...)) }
func (l gooseLogger) Print(v ...interface{})                 { l.logger.Debug(fmt.Sprint(v...)) }
func (l gooseLogger) Println(v ...interface{})               { l.logger.Debug(fmt.Sprint(v...)) }
func (l gooseLogger) Printf(format string, v ...interface{}) { l.logger.Debug(fmt.Sprintf(format, v...)) }

func setUpGoose(logger core.Logger) error {
	goose.SetBaseFS(migrationsFS)
	if logger != nil {
		goose.SetLogger(gooseLogger{logger: logger})
	}
	return goose.SetDialect("postgres")
}

// Migrate applies every pending migration. Running it on an up-to-date schema is a no-op.
func Migrate(ctx context.Context, db *sqlx.DB, logger core.Logger) error {
	return RunMigrationsContext(ctx, db, logger, "up")
}

// RunMigrations runs a goose command (up, up-by-one, up-to, down, down-to, redo, reset, status, version)
// against the embedded migrations.
func RunMigrations(db *sqlx.DB, logger core.Logger, command string, args ...string) error {
	return RunMigrationsContext(context.Background(), db, logger, command, args...)
}

// RunMigrationsContext is RunMigrations bounded by `ctx`. goose opens its own transaction per
// migration, so it runs on the pool rather than through WithTx.
func RunMigrationsContext(ctx context.Context, db *sqlx.DB, logger core.Logger, command string, args ...string) error {
	if err := setUpGoose(logger); err != nil {
		return errors.Wrap(err, "setting up migrations")
	}
	if err := goose.RunContext(ctx, command, db.DB, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "migrating database (%s)", command)
	}
	return nil
}

// WithTx runs fn in a transaction on a connection held for the duration of the call only.
// The transaction is committed when fn succeeds and rolled back otherwise; the connection is always released.
func WithTx(ctx context.Context, db *sqlx.DB, timeout time.Duration, fn func(ctx context.Context, tx *sqlx.Tx) error) (err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := db.Connx(ctx)
	if err != nil {
		return errors.Wrap(err, "acquiring connection")
	}
	defer func() {
		if cErr := conn.Close(); cErr != nil && err == nil {
			err = errors.Wrap(cErr, "releasing connection")
		}
	}()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

type queryLogWriter struct {
	logger core.Logger
}

func (w queryLogWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimSpace(string(p)); msg != "" {
		w.logger.Debug(msg)
	}
	return len(p), nil
}

// EnableQueryLog logs every raw profile query and its arguments at debug level.
func EnableQueryLog(logger core.Logger) {
	boil.DebugMode = true
	boil.DebugWriter = queryLogWriter{logger: logger}
}

var _ io.Writer = queryLogWriter{}
