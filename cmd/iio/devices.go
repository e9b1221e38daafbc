package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/iio"
	"github.com/mklimuk/iio/cmd/iio/console"
	"github.com/mklimuk/iio/sysfs"
)

var devicesCmd = cli.Command{
	Name: "devices",
	Subcommands: cli.Commands{
		&devicesLsCmd,
	},
}

var devicesLsCmd = cli.Command{
	Name:  "ls",
	Usage: "list devices on a sensor bus",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bus",
			Aliases: []string{"b"},
			Value:   "iio",
		},
	},
	Action: func(c *cli.Context) error {
		reg, err := sysfs.OpenRegistry(sysfs.DefaultSysRoot, sysfs.DefaultDevRoot)
		if err != nil {
			return console.Exit(1, "could not open device registry: %s", err)
		}
		defer func() { _ = reg.Close() }()
		devices, err := reg.Devices(c.String("bus"))
		if err != nil {
			return console.Exit(1, "could not list %s devices: %s", c.String("bus"), err)
		}

		w := tabwriter.NewWriter(os.Stdout, 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "NAME\tPATH\tNODE\tDRIVER\n")
		for _, dev := range devices {
			driver := ""
			if d := iio.For(dev); d != nil {
				driver = d.Name()
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", dev.Attr("name"), dev.SysfsPath(), dev.DevNode(), driver)
		}
		_ = w.Flush()
		return nil
	},
}
