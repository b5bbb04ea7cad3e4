package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/trezcool/coursetools/apps/api/echo"
	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/course"
	"github.com/trezcool/coursetools/core/coursetool"
	"github.com/trezcool/coursetools/core/enrollment"
	"github.com/trezcool/coursetools/core/reminder"
	"github.com/trezcool/coursetools/core/task"
	"github.com/trezcool/coursetools/core/upgrade"
	"github.com/trezcool/coursetools/core/user"
	emailsvc "github.com/trezcool/coursetools/services/email"
	logsvc "github.com/trezcool/coursetools/services/logger"
	"github.com/trezcool/coursetools/storage/database"
	dummydb "github.com/trezcool/coursetools/storage/database/dummy"
	sqlxrepos "github.com/trezcool/coursetools/storage/database/sqlx"
)

type repositories struct {
	users       user.Repository
	courses     course.Repository
	enrollments enrollment.Repository
	upgrades    upgrade.Repository
	close       func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	// set up DB
	repos, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(repos.users)
	crsSvc := course.NewService(repos.courses)
	upgSvc := upgrade.NewService(repos.upgrades, conf.Upgrade.DeadlineDays)
	enrSvc := enrollment.NewService(repos.enrollments, crsSvc, upgSvc)

	tools := coursetool.NewDefaultManager(coursetool.Deps{
		Courses:     crsSvc,
		Enrollments: enrSvc,
		Deadlines:   upgSvc,
	}, conf.FrontendBaseURL)
	upgradeTool, err := tools.Tool(coursetool.VerifiedUpgradeID)
	if err != nil {
		logger.Fatal("getting verified upgrade tool", err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	if err = core.ParseEmailTemplates(); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := task.NewQueue(conf.Tasks, logger)
	reminder.Register(queue, reminder.Deps{
		Conf:        conf,
		Courses:     crsSvc,
		Enrollments: enrSvc,
		Users:       usrSvc,
		UpgradeTool: upgradeTool,
		Mailer:      mailSvc,
		Logger:      logger,
	})
	queue.Start(ctx)
	defer queue.Stop()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(conf.Server.Address(), shutdown, &echoapi.Deps{
		Conf:          conf,
		Logger:        logger,
		UserSvc:       usrSvc,
		PasswordReset: user.NewPasswordReset(usrSvc, conf, mailSvc),
		CourseSvc:     crsSvc,
		DeadlineSvc:   upgSvc,
		EnrollmentSvc: enrSvc,
		Tools:         tools,
		Tasks:         queue,
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("API listening on %s", conf.Server.Address()))
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		sctx, scancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer scancel()

		if err = server.Stop(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpRepositories(conf *core.Config) (*repositories, error) {
	if conf.Database.InMemory {
		db, err := dummydb.Open()
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:       dummydb.NewUserRepository(db),
			courses:     dummydb.NewCourseRepository(db),
			enrollments: dummydb.NewEnrollmentRepository(db),
			upgrades:    dummydb.NewUpgradeConfigRepository(db),
			close:       func() error { return nil },
		}, nil
	}

	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &repositories{
		users:       sqlxrepos.NewUserRepository(db),
		courses:     sqlxrepos.NewCourseRepository(db),
		enrollments: sqlxrepos.NewEnrollmentRepository(db),
		upgrades:    sqlxrepos.NewUpgradeConfigRepository(db),
		close:       db.Close,
	}, nil
}
