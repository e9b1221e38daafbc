package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/iio"
	"github.com/mklimuk/iio/cmd/iio/console"
	"github.com/mklimuk/iio/sysfs"
)

var triggersCmd = cli.Command{
	Name:  "triggers",
	Usage: "show hardware triggers associated with discovered sensors",
	Action: func(c *cli.Context) error {
		reg, err := sysfs.OpenRegistry(sysfs.DefaultSysRoot, sysfs.DefaultDevRoot)
		if err != nil {
			return console.Exit(1, "could not open device registry: %s", err)
		}
		defer func() { _ = reg.Close() }()
		devices, err := reg.Devices("iio")
		if err != nil {
			return console.Exit(1, "could not list iio devices: %s", err)
		}

		names := make(map[string]iio.Device, len(devices))
		for _, dev := range devices {
			names[dev.Attr("name")] = dev
		}
		found := false
		for _, dev := range devices {
			driver := iio.For(dev)
			if driver == nil {
				continue
			}
			found = true
			want := fmt.Sprintf("%s-dev%d", dev.Attr("name"), dev.Number())
			if trigger, ok := names[want]; ok {
				console.Printf("%s %s trigger %s at %s\n", dev.Attr("name"), dev.SysfsPath(), console.Green(want), trigger.SysfsPath())
			} else {
				console.Printf("%s %s trigger %s\n", dev.Attr("name"), dev.SysfsPath(), console.Red("missing"))
			}
		}
		if !found {
			console.Warnf("no supported sensors on the bus")
		}
		return nil
	},
}
