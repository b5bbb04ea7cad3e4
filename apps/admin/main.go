package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/course"
	"github.com/trezcool/coursetools/core/upgrade"
	"github.com/trezcool/coursetools/core/user"
	logsvc "github.com/trezcool/coursetools/services/logger"
	"github.com/trezcool/coursetools/storage/database"
	dummydb "github.com/trezcool/coursetools/storage/database/dummy"
	sqlxrepos "github.com/trezcool/coursetools/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	cli, closeDB, err := newCommandLine(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	err = cli.run(os.Args)
	if cerr := closeDB(); cerr != nil {
		logger.Error("failed to close database", cerr)
	}
	logger.Close()
	if err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func newCommandLine(conf *core.Config) (*commandLine, func() error, error) {
	if conf.Database.InMemory {
		db, err := dummydb.Open()
		if err != nil {
			return nil, nil, err
		}
		return &commandLine{
			users:     user.NewService(dummydb.NewUserRepository(db)),
			courses:   course.NewService(dummydb.NewCourseRepository(db)),
			deadlines: upgrade.NewService(dummydb.NewUpgradeConfigRepository(db), conf.Upgrade.DeadlineDays),
		}, func() error { return nil }, nil
	}

	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, nil, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	return &commandLine{
		db:        db.DB,
		users:     user.NewService(sqlxrepos.NewUserRepository(db)),
		courses:   course.NewService(sqlxrepos.NewCourseRepository(db)),
		deadlines: upgrade.NewService(sqlxrepos.NewUpgradeConfigRepository(db), conf.Upgrade.DeadlineDays),
	}, db.Close, nil
}
