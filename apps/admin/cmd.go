package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/chat"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	isTerminalFunc   = term.IsTerminal   // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("no database configured: set the database url")
)

type commandLine struct {
	conf        *core.Config
	out         io.Writer
	classifier  chat.Classifier
	openHistory func(ctx context.Context) (chat.HistoryRepository, io.Closer, error)
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  ask -query TEXT [-role ROLE] [-user ID] - send a query to the classifier and render the reply")
	fmt.Println("  history [-status S] [-question Q] [-user ID] [-limit N] [-xlsx FILE] - review the chat history")
	fmt.Println("  hashpasscode - hash the admin passcode (prompted) for the session.adminPasscodeHash setting")
	fmt.Println("  migrate - create the chat history schema")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	askCmd := flag.NewFlagSet("ask", flag.ContinueOnError)
	askQuery := askCmd.String("query", "", "The query to send.")
	askRole := askCmd.String("role", "admin", "The role the query is sent as.")
	askUser := askCmd.String("user", "", "The user ID the query is sent as (defaults to session.defaultUserID).")
	askWidth := askCmd.Int("width", 40, "The width of the largest chart bar.")

	historyCmd := flag.NewFlagSet("history", flag.ContinueOnError)
	historyStatus := historyCmd.String("status", "", "Only entries whose status contains S.")
	historyQuestion := historyCmd.String("question", "", "Only entries whose question contains Q.")
	historyUser := historyCmd.String("user", "", "Only entries whose user ID contains ID.")
	historyLimit := historyCmd.Int("limit", 50, "The maximum number of entries (0: all).")
	historyXLSX := historyCmd.String("xlsx", "", "Write the entries to this .xlsx file instead of printing them.")

	switch args[1] {
	case "ask":
		if err := askCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *askQuery == "" {
			askCmd.Usage()
			return errHelp
		}
		return cli.ask(ctx, *askQuery, *askRole, *askUser, *askWidth)
	case "history":
		if err := historyCmd.Parse(args[2:]); err != nil {
			return err
		}
		filter := chat.HistoryFilter{
			Status:   *historyStatus,
			Question: *historyQuestion,
			UserID:   *historyUser,
			Limit:    *historyLimit,
		}
		return cli.history(ctx, filter, *historyXLSX)
	case "hashpasscode":
		fmt.Print("Enter passcode:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPasscode(string(pwd))
	case "migrate":
		return cli.migrate(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}

// isTerminal reports whether out is an interactive terminal.
func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && isTerminalFunc(int(f.Fd()))
}
