package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/intelliscript/intelliscript/apps/api/echo"
	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/chat"
	"github.com/intelliscript/intelliscript/core/session"
	classifiersvc "github.com/intelliscript/intelliscript/services/classifier"
	logsvc "github.com/intelliscript/intelliscript/services/logger"
	uploadsvc "github.com/intelliscript/intelliscript/services/uploads"
	"github.com/intelliscript/intelliscript/storage/database"
	inmemdb "github.com/intelliscript/intelliscript/storage/database/inmem"
	redisdb "github.com/intelliscript/intelliscript/storage/database/redis"
	sqlxrepos "github.com/intelliscript/intelliscript/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up stores
	memDB := inmemdb.Open()
	sessionStore := inmemdb.NewSessionStore(memDB)
	transcriptRepo := inmemdb.NewTranscriptRepository(memDB)
	historyRepo := inmemdb.NewHistoryRepository(memDB)

	if conf.Redis.Address != "" {
		rdb, err := redisdb.Open(ctx, conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up redis: %v", err), err)
		}
		defer func() {
			if err = rdb.Close(); err != nil {
				dbLogger.Error("Failed to close redis", err)
			}
		}()
		sessionStore = redisdb.NewSessionStore(rdb)
		transcriptRepo = redisdb.NewTranscriptRepository(rdb, conf.Session.TTL)
	}

	if conf.Database.URL != "" {
		db, err := database.Open(ctx, conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Error("Failed to close database", err)
			}
		}()
		if err = database.Migrate(ctx, db); err != nil {
			logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
		}
		historyRepo = sqlxrepos.NewHistoryRepository(db)
	}

	// set up services
	classifier := classifiersvc.NewClient(conf)
	sessionSvc := session.NewService(sessionStore, conf)
	chatSvc := chat.NewService(classifier, classifier, transcriptRepo, historyRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			SessionSvc: sessionSvc,
			ChatSvc:    chatSvc,
			Renderer:   chat.NewRenderer(nil),
			Uploader:   uploadsvc.NewClient(conf),
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
