package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	carpkg "github.com/nimbuscar/car"
	"github.com/nimbuscar/car/unpack"
)

var unpackCommand = &cli.Command{
	Name:      "unpack",
	Usage:     "restore the tree rooted at a CAR's first root",
	ArgsUsage: "<car>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "destination directory, default: current directory"},
	},
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return fmt.Errorf("unpack requires exactly one car argument")
		}
		target := c.String("output")
		if target == "" {
			target = "."
		}

		f, err := os.Open(c.Args().First())
		if err != nil {
			return err
		}
		defer f.Close()

		r, err := carpkg.NewReader(f)
		if err != nil {
			return err
		}
		res, err := unpack.New(r)
		if err != nil {
			return err
		}

		base := filepath.Base(c.Args().First())
		rootName := strings.TrimSuffix(base, filepath.Ext(base))

		return res.Unpack(r.Roots()[0], target, rootName)
	},
}
