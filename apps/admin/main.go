package main

import (
	"log"
	"os"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	logsvc "github.com/trezcool/gradebook/services/logger"
	"github.com/trezcool/gradebook/storage"
)

func main() {
	std := log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.LoadConfig()
	if err != nil {
		std.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(std, conf)
	defer logger.Close()

	scale, err := student.ParseGradeScale(conf.GradeScale)
	if err != nil {
		logger.Fatal("parsing GRADE_SCALE", err)
	}

	adapter, db, err := storage.Open(conf, logger)
	if err != nil {
		logger.Fatal("setting up storage", err)
	}
	if db != nil {
		defer db.Close()
	}

	cli := &commandLine{
		conf:    conf,
		logger:  logger,
		adapter: adapter,
		db:      db,
		roster:  student.NewRoster(scale),
		in:      os.Stdin,
	}
	if err := cli.rootCmd().Execute(); err != nil {
		cli.exit(1, logger.Close)
	}
}
