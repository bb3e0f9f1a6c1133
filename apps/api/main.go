package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/dewinurmalitasari/geoviz-server/apps/api/echo"
	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/material"
	"github.com/dewinurmalitasari/geoviz-server/core/practice"
	"github.com/dewinurmalitasari/geoviz-server/core/reaction"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
	logsvc "github.com/dewinurmalitasari/geoviz-server/services/logger"
	tracesvc "github.com/dewinurmalitasari/geoviz-server/services/tracing"
	rediscache "github.com/dewinurmalitasari/geoviz-server/storage/cache/redis"
	"github.com/dewinurmalitasari/geoviz-server/storage/database"
	"github.com/dewinurmalitasari/geoviz-server/storage/database/inmem"
	"github.com/dewinurmalitasari/geoviz-server/storage/database/sqlx"
)

// stores holds the repositories the services are built on.
type stores struct {
	tx        core.TxRunner
	events    statistic.Repository
	materials material.Repository
	practices practice.Repository
	reactions reaction.Repository
	close     func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	zapLogger, err := logsvc.NewZapLogger("API", conf.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up logger: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(zapLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Sync()

	dbLogger := logsvc.NewRollbarLogger(zapLogger.Named("DB"), conf)

	// set up tracing
	shutdownTracing, err := tracesvc.Init(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up tracing: %v", err), err)
	}
	defer func() {
		if err = shutdownTracing(context.Background()); err != nil {
			logger.Error("Failed to flush traces", err)
		}
	}()

	// set up storage
	st, err := setUpStores(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = st.close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// the catalogs are read through redis when it is configured
	var (
		materialCatalog statistic.MaterialCatalog    = st.materials
		practiceCatalog statistic.PracticeCatalog    = st.practices
		invalidator     statistic.CatalogInvalidator = statistic.NoopInvalidator{}
	)
	if conf.Redis.Addr != "" {
		client, err := rediscache.NewClient(ctx, conf.Redis)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up redis: %v", err), err)
		}
		defer client.Close()

		cache := rediscache.NewCatalogCache(client, st.materials, st.practices, logger, conf.Redis)
		materialCatalog, practiceCatalog, invalidator = cache, cache, cache
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	statSvc := statistic.NewService(st.events, materialCatalog, practiceCatalog, validate)
	matSvc := material.NewService(st.materials, invalidator, logger, validate)
	pracSvc := practice.NewService(st.tx, st.practices, st.events, invalidator, logger, validate)
	reactSvc := reaction.NewService(st.reactions, st.materials, validate)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			StatisticSvc: statSvc,
			MaterialSvc:  matSvc,
			PracticeSvc:  pracSvc,
			ReactionSvc:  reactSvc,
			Translator:   translator,
		},
	)

	go func() {
		logger.Info(fmt.Sprintf("API listening on %s", conf.Server.Address()))
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

func setUpStores(conf *core.Config) (stores, error) {
	if conf.Storage == core.StorageMemory {
		db := inmemdb.NewDB()
		return stores{
			tx:        inmemdb.NewTxRunner(db),
			events:    inmemdb.NewStatisticRepository(db),
			materials: inmemdb.NewMaterialRepository(db),
			practices: inmemdb.NewPracticeRepository(db),
			reactions: inmemdb.NewReactionRepository(db),
			close:     func() error { return nil },
		}, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return stores{}, err
	}
	return stores{
		tx:        database.NewTxRunner(db),
		events:    sqlxrepos.NewStatisticRepository(db),
		materials: sqlxrepos.NewMaterialRepository(db),
		practices: sqlxrepos.NewPracticeRepository(db),
		reactions: sqlxrepos.NewReactionRepository(db),
		close:     db.Close,
	}, nil
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
