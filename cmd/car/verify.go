package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	carpkg "github.com/nimbuscar/car"
)

var verifyCommand = &cli.Command{
	Name:      "verify",
	Usage:     "re-hash every block in a CAR and confirm it matches its CID",
	ArgsUsage: "<car>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return fmt.Errorf("verify requires exactly one car argument")
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
		if err := r.Verify(); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}
