package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	carpkg "github.com/nimbuscar/car"
)

var rootsCommand = &cli.Command{
	Name:      "roots",
	Usage:     "print a CAR's root CIDs, one per line",
	ArgsUsage: "<car>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return fmt.Errorf("roots requires exactly one car argument")
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
		for _, root := range r.Roots() {
			fmt.Println(root.String())
		}
		return nil
	},
}
