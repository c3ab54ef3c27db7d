package main

import (
	"context"
	"fmt"
	"log"
	"os"

	echoapi "github.com/trezcool/gradebook/apps/api/echo"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	logsvc "github.com/trezcool/gradebook/services/logger"
	"github.com/trezcool/gradebook/storage"
	"github.com/trezcool/gradebook/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf, err := core.LoadConfig()
	if err != nil {
		std.Fatal(err)
	}

	logger := logsvc.NewRollbarLogger(std, conf)
	defer logger.Close()

	scale, err := student.ParseGradeScale(conf.GradeScale)
	if err != nil {
		logger.Fatal(fmt.Sprintf("parsing GRADE_SCALE: %v", err), err)
	}

	if !conf.Database.Disabled && conf.Database.AdminUser != "" {
		// best effort: a failure here only means Load falls back to the data file
		if err = database.CreateIfNotExist(conf); err != nil {
			logger.Warn("could not create the database", err)
		}
	}
	adapter, db, err := storage.Open(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	if db != nil {
		defer func() {
			if err = db.Close(); err != nil {
				logger.Error("closing database", err)
			}
		}()
	}

	records, err := adapter.Load(context.Background())
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading students: %v", err), err)
	}
	roster := student.NewRoster(scale, records...)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build),
		"storage", adapter.Mode().String(), "students", roster.Count())
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:    conf,
		Logger:  logger,
		Adapter: adapter,
		Roster:  roster,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
