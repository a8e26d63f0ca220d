package main

import (
	"fmt"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "car",
		Usage: "pack and unpack UnixFS content-addressed archives",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logging.SetAllLoggers(logging.LevelDebug)
			}
			return nil
		},
		Commands: []*cli.Command{
			packCommand,
			unpackCommand,
			lsCommand,
			rootsCommand,
			catCommand,
			verifyCommand,
			inspectCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "car: %v\n", err)
		os.Exit(1)
	}
}
