package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	carpkg "github.com/nimbuscar/car"
	"github.com/nimbuscar/car/unpack"
)

var lsCommand = &cli.Command{
	Name:      "ls",
	Usage:     "print the top-level entries of a CAR's first root",
	ArgsUsage: "<car>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return fmt.Errorf("ls requires exactly one car argument")
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

		entries, err := res.Ls(r.Roots()[0])
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s\t%s\t%d\n", e.Name, e.Kind(), e.Size)
		}
		return nil
	},
}
