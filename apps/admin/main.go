package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/chat"
	classifiersvc "github.com/intelliscript/intelliscript/services/classifier"
	"github.com/intelliscript/intelliscript/storage/database"
	sqlxrepos "github.com/intelliscript/intelliscript/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// start CLI
	cli := commandLine{
		conf:       conf,
		out:        os.Stdout,
		classifier: classifiersvc.NewClient(conf),
		openHistory: func(ctx context.Context) (chat.HistoryRepository, io.Closer, error) {
			db, err := database.Open(ctx, conf)
			if err != nil {
				return nil, nil, err
			}
			return sqlxrepos.NewHistoryRepository(db), db, nil
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
