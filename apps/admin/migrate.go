package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/storage/database"
)

// mockable
var migrateFunc = func(ctx context.Context, conf *core.Config) error {
	db, err := database.Open(ctx, conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return database.Migrate(ctx, db)
}

func (cli *commandLine) migrate(ctx context.Context) error {
	if cli.conf.Database.URL == "" {
		return errNoDatabase
	}
	if err := migrateFunc(ctx, cli.conf); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	_, _ = fmt.Fprintln(cli.out, "database schema is up to date")
	return nil
}
