package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/weberc2/mono/jfs/pkg/config"
	"github.com/weberc2/mono/jfs/pkg/console"
)

func shell(c *config.Config, ctx *cli.Context) error {
	con := console.New(c.MountOptions())
	defer con.Close()

	if script := ctx.Args().First(); script != "" {
		file, err := os.Open(script)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		err = runScript(con, file, os.Stdout)
		file.Close()
		if err != nil {
			return fmt.Errorf("running script `%s`: %w", script, err)
		}
		if !ctx.Bool("continue") {
			return nil
		}
	}
	return interact(con, os.Stdin, os.Stdout)
}

// runScript executes every line of `r`, echoing non-empty results to `w`.
func runScript(con *console.Console, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		if out := con.Execute(tokens); out != "" {
			fmt.Fprintln(w, out)
		}
	}
	return scanner.Err()
}

// interact prompts for commands until `exit` or the end of input.
func interact(con *console.Console, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, con.Prefix())
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		if tokens[0] == "exit" {
			return nil
		}
		if out := con.Execute(tokens); out != "" {
			fmt.Fprintln(w, out)
		}
	}
}
