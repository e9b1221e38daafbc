package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/iio"
	"github.com/mklimuk/iio/accel"
	"github.com/mklimuk/iio/cmd/iio/console"
	"github.com/mklimuk/iio/loop"
	"github.com/mklimuk/iio/sysfs"
)

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "stream accelerometer readings until interrupted",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "yaml config file",
		},
		&cli.DurationFlag{
			Name:    "duration",
			Aliases: []string{"d"},
			Usage:   "stop after the given time (default: run until interrupted)",
		},
	},
	Action: func(c *cli.Context) error {
		cfg := defaultWatchConfig()
		if path := c.String("config"); path != "" {
			var err error
			if cfg, err = loadWatchConfig(path); err != nil {
				return console.Exit(1, "%s", err)
			}
		}
		if c.IsSet("duration") {
			cfg.Duration = c.Duration("duration")
		}

		lp, err := loop.New()
		if err != nil {
			return console.Exit(1, "could not start event loop: %s", err)
		}
		defer func() { _ = lp.Close() }()

		driver := accel.NewBuffered(
			sysfs.Factory(cfg.SysRoot, cfg.DevRoot),
			sysfs.Sessions(),
			sysfs.OpenStream,
			lp,
		)
		target, err := pickDevice(cfg, driver)
		if err != nil {
			return err
		}

		err = driver.Open(target,
			func(kind iio.Kind, r iio.Reading) {
				console.Printf("%s x %s y %s z %s m/s²\n", console.White(kind),
					console.Cyan(r.X), console.Cyan(r.Y), console.Cyan(r.Z))
			},
			func(kind iio.Kind, err error) {
				console.Errorf("%s: %s", kind, err)
			})
		if err != nil {
			return console.Exit(1, "could not open %s: %s", target.SysfsPath(), err)
		}
		defer driver.Close()
		driver.SetPolling(true)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if cfg.Duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
			defer cancel()
		}
		err = lp.Run(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	},
}

func pickDevice(cfg watchConfig, driver iio.Driver) (iio.Device, error) {
	reg, err := sysfs.OpenRegistry(cfg.SysRoot, cfg.DevRoot)
	if err != nil {
		return nil, console.Exit(1, "could not open device registry: %s", err)
	}
	defer func() { _ = reg.Close() }()
	devices, err := reg.Devices("iio")
	if err != nil {
		return nil, console.Exit(1, "could not list iio devices: %s", err)
	}
	var candidates []iio.Device
	for _, dev := range devices {
		if cfg.Device != "" && dev.SysfsPath() != cfg.Device {
			continue
		}
		if driver.Discover(dev) {
			candidates = append(candidates, dev)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, console.Exit(1, "no accelerometer found on the iio bus")
	case 1:
		return candidates[0], nil
	}
	paths := make([]string, len(candidates))
	for i, dev := range candidates {
		paths[i] = dev.SysfsPath()
	}
	idx, err := console.Select("several accelerometers found, which one", paths)
	if err != nil {
		return nil, console.Exit(1, "could not read selection: %s", err)
	}
	return candidates[idx], nil
}
