package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	carpkg "github.com/nimbuscar/car"
	"github.com/nimbuscar/car/unpack"
)

var inspectCommand = &cli.Command{
	Name:      "inspect",
	Usage:     "print a best-effort block-type summary for a CAR",
	ArgsUsage: "<car>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return fmt.Errorf("inspect requires exactly one car argument")
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

		stats, err := res.Stat(r.Roots())
		if err != nil {
			return err
		}
		fmt.Printf("raw blocks:       %d\n", stats.RawBlocks)
		fmt.Printf("file blocks:      %d\n", stats.FileBlocks)
		fmt.Printf("directory blocks: %d\n", stats.DirectoryBlocks)
		fmt.Printf("symlink blocks:   %d\n", stats.SymlinkBlocks)
		fmt.Printf("total bytes:      %s\n", humanize.Bytes(stats.TotalBytes))
		return nil
	},
}
