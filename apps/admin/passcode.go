package main

import (
	"fmt"

	"github.com/intelliscript/intelliscript/core/session"
)

func (cli *commandLine) hashPasscode(passcode string) error {
	hash, err := session.HashPasscode(passcode)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, hash)
	return err
}
