package storage

import (
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/storage/database"
	boiledrepos "github.com/trezcool/gradebook/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/gradebook/storage/database/sqlx"
	filestore "github.com/trezcool/gradebook/storage/file"
)

// Open builds the adapter described by `conf`. The returned DB is nil when the database is disabled;
// otherwise it is not connected yet: the first Load decides between the database and the file.
func Open(conf *core.Config, logger core.Logger) (*Adapter, *sqlx.DB, error) {
	file := filestore.NewStore(conf.DataPath, logger)
	if conf.Database.Disabled {
		logger.Info("database disabled, using the data file", "path", conf.DataPath)
		return NewAdapter(nil, nil, file, logger), nil, nil
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	if conf.Database.LogQueries {
		database.EnableQueryLog(logger)
	}

	timeout := conf.Database.QueryTimeout
	adapter := NewAdapter(
		sqlxrepos.NewStudentStore(db, timeout, logger),
		boiledrepos.NewProfileStore(db, timeout),
		file,
		logger,
	)
	return adapter, db, nil
}
