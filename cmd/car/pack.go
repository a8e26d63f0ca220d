package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nimbuscar/car/pack"
)

var packCommand = &cli.Command{
	Name:      "pack",
	Usage:     "pack a file or directory into a new CAR",
	ArgsUsage: "<source>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "output CAR path"},
		&cli.BoolFlag{Name: "no-wrap", Usage: "do not wrap a single-file source in a directory (default)"},
		&cli.BoolFlag{Name: "wrap", Usage: "wrap a single-file source in a one-entry directory"},
	},
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return fmt.Errorf("pack requires exactly one source argument")
		}
		source := c.Args().First()

		out, err := os.Create(c.String("output"))
		if err != nil {
			return err
		}
		defer out.Close()

		wrap := c.Bool("wrap")
		if c.Bool("no-wrap") {
			wrap = false
		}

		root, err := pack.Pack(source, out, pack.Options{Wrap: wrap})
		if err != nil {
			return err
		}
		fmt.Println(root.String())
		return nil
	},
}
