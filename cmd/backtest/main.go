package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const Version = "0.3.0"

func main() {
	app := cli.NewApp()
	app.Name = "backtest"
	app.Version = Version
	app.Usage = "replay bars through the simulated broker"
	app.Commands = []*cli.Command{
		runCommand,
		convertCommand,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
