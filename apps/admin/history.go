package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/intelliscript/intelliscript/core/chat"
	exportsvc "github.com/intelliscript/intelliscript/services/export"
)

func (cli *commandLine) history(ctx context.Context, filter chat.HistoryFilter, xlsxPath string) error {
	if cli.conf.Database.URL == "" {
		return errNoDatabase
	}
	repo, closer, err := cli.openHistory(ctx)
	if err != nil {
		return errors.Wrap(err, "opening history")
	}
	defer func() { _ = closer.Close() }()

	filter.Clean()
	entries, err := repo.FilterEntries(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "filtering history")
	}
	tbl := chat.HistoryTable(entries)

	if xlsxPath != "" {
		f, err := os.Create(xlsxPath)
		if err != nil {
			return errors.Wrap(err, "creating xlsx file")
		}
		if err = exportsvc.WriteXLSX(f, "chat history", tbl); err != nil {
			_ = f.Close()
			return err
		}
		if err = f.Close(); err != nil {
			return errors.Wrap(err, "closing xlsx file")
		}
		_, err = fmt.Fprintf(cli.out, "%d entries written to %s\n", len(entries), xlsxPath)
		return err
	}

	md := tbl.Markdown()
	if isTerminal(cli.out) {
		md = renderMarkdown(md)
	}
	_, err = fmt.Fprintf(cli.out, "%s\n%d entries\n", md, len(entries))
	return err
}
