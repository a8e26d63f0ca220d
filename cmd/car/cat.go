package main

import (
	"fmt"
	"os"

	"github.com/ipfs/go-cid"
	"github.com/urfave/cli/v2"

	carpkg "github.com/nimbuscar/car"
	"github.com/nimbuscar/car/unpack"
)

var catCommand = &cli.Command{
	Name:      "cat",
	Usage:     "write the bytes of a File/Raw CID to stdout",
	ArgsUsage: "<car>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "cid", Aliases: []string{"c"}, Required: true, Usage: "CID to stream"},
	},
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return fmt.Errorf("cat requires exactly one car argument")
		}

		target, err := cid.Parse(c.String("cid"))
		if err != nil {
			return fmt.Errorf("%w: %v", carpkg.ErrInvalidCid, err)
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
		return res.Cat(target, os.Stdout)
	},
}
