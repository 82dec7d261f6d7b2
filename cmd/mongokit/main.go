package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/mongokit/mongokit/internal/app"
	"github.com/mongokit/mongokit/internal/config"
)

func main() {
	cliApp := &cli.App{
		Name:  "mongokit",
		Usage: "selective MongoDB backups over local or SSH connections",
		Commands: []*cli.Command{
			{
				Name:  "backup",
				Usage: "run one backup of a configured connection",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "source",
						Usage: "connection name from config",
					},
					&cli.StringFlag{
						Name:  "preset",
						Usage: "stored preset name (overrides --source/--mode/--collections)",
					},
					&cli.StringFlag{
						Name:  "mode",
						Value: "all",
						Usage: "selection mode: all, include, or exclude",
					},
					&cli.StringSliceFlag{
						Name:  "collections",
						Usage: "collections for include/exclude mode",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "abort the run after this duration (0 = no limit)",
					},
				),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}

					ctx, cancel := runContext(c.Context, c.Duration("timeout"))
					defer cancel()

					path, err := app.RunBackup(ctx, cfg, app.BackupOptions{
						Source:      c.String("source"),
						Preset:      c.String("preset"),
						Mode:        c.String("mode"),
						Collections: c.StringSlice("collections"),
					})
					if err != nil {
						return err
					}
					fmt.Println(path)
					return nil
				},
			},
			{
				Name:  "restore",
				Usage: "restore an archive into a configured connection",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "target",
						Required: true,
						Usage:    "connection name from config",
					},
					&cli.StringFlag{
						Name:     "file",
						Required: true,
						Usage:    "archive file (absolute, or relative to backupDir)",
					},
					&cli.BoolFlag{
						Name:  "drop",
						Usage: "drop collections before restoring them",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "abort the run after this duration (0 = no limit)",
					},
				),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}

					ctx, cancel := runContext(c.Context, c.Duration("timeout"))
					defer cancel()

					return app.RunRestore(ctx, cfg, c.String("target"), c.String("file"), c.Bool("drop"))
				},
			},
			{
				Name:  "preset",
				Usage: "manage stored backup presets",
				Subcommands: []*cli.Command{
					{
						Name:  "add",
						Usage: "store a reusable backup specification",
						Flags: append(commonFlags(),
							&cli.StringFlag{Name: "name", Required: true},
							&cli.StringFlag{Name: "source", Required: true, Usage: "connection name from config"},
							&cli.StringFlag{Name: "mode", Value: "all", Usage: "all, include, or exclude"},
							&cli.StringSliceFlag{Name: "collections"},
						),
						Action: func(c *cli.Context) error {
							cfg, err := loadConfig(c)
							if err != nil {
								return err
							}
							return app.AddPreset(cfg, c.String("config"), config.BackupPreset{
								Name:        c.String("name"),
								Source:      c.String("source"),
								Mode:        c.String("mode"),
								Collections: c.StringSlice("collections"),
							})
						},
					},
					{
						Name:  "list",
						Usage: "list stored presets",
						Flags: commonFlags(),
						Action: func(c *cli.Context) error {
							cfg, err := loadConfig(c)
							if err != nil {
								return err
							}
							for _, p := range app.ListPresets(cfg) {
								fmt.Printf("%s\tsource=%s mode=%s collections=%v\n", p.Name, p.Source, p.Mode, p.Collections)
							}
							return nil
						},
					},
					{
						Name:  "remove",
						Usage: "delete a stored preset",
						Flags: append(commonFlags(),
							&cli.StringFlag{Name: "name", Required: true},
						),
						Action: func(c *cli.Context) error {
							cfg, err := loadConfig(c)
							if err != nil {
								return err
							}
							return app.RemovePreset(cfg, c.String("config"), c.String("name"))
						},
					},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Required: true,
			Usage:    "path to config json",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable debug logging",
		},
	}
}

func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	if c.Bool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	}
	return config.Load(c.String("config"))
}

func runContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
