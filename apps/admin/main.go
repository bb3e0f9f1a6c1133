package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
	logsvc "github.com/dewinurmalitasari/geoviz-server/services/logger"
	"github.com/dewinurmalitasari/geoviz-server/storage/database"
	"github.com/dewinurmalitasari/geoviz-server/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zapLogger, err := logsvc.NewZapLogger("ADMIN", conf.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up logger: %v\n", err)
		os.Exit(1)
	}
	logger := zapLogger.Sugar()

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatalf("opening database: %v", err)
	}

	// start CLI
	cli := commandLine{
		db: db,
		statSvc: statistic.NewService(
			sqlxrepos.NewStatisticRepository(db),
			sqlxrepos.NewMaterialRepository(db),
			sqlxrepos.NewPracticeRepository(db),
			validator.New(),
		),
		out: os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	_ = logger.Sync()
	if err != nil {
		if err != errHelp {
			logger.Errorf("error: %s", err)
		}
		os.Exit(1)
	}
}
