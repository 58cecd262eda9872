package main

import (
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/weberc2/mono/jfs/pkg/config"
	"github.com/weberc2/mono/jfs/pkg/fs"
	"github.com/weberc2/mono/jfs/pkg/objectstore"
	"github.com/weberc2/mono/jfs/pkg/snapshot"
	"github.com/weberc2/mono/jfs/pkg/types"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:  "jfs",
		Usage: "manage file systems stored inside a single host file",
		Description: "jfs creates, formats, checks and snapshots volume " +
			"images and opens an interactive shell on them",
		Commands: []*cli.Command{{
			Name:      "create",
			Usage:     "create a zero-filled, unformatted image",
			ArgsUsage: "IMAGE SIZE",
			Action: withConfig(func(c *config.Config, ctx *cli.Context) error {
				if ctx.NArg() != 2 {
					return cli.Exit("usage: jfs create IMAGE SIZE", 2)
				}
				size, err := strconv.ParseInt(ctx.Args().Get(1), 10, 64)
				if err != nil {
					return fmt.Errorf("parsing size: %w", err)
				}
				return fs.Create(ctx.Args().Get(0), types.Byte(size))
			}),
		}, {
			Name:      "format",
			Usage:     "write an empty file system over an image",
			ArgsUsage: "[IMAGE]",
			Action: withConfig(func(c *config.Config, ctx *cli.Context) error {
				image, err := c.ImageOr(ctx.Args().First())
				if err != nil {
					return err
				}
				return fs.Format(image)
			}),
		}, {
			Name:      "shell",
			Usage:     "run commands against images interactively",
			ArgsUsage: "[SCRIPT]",
			Description: "runs each line of SCRIPT, if given, and then " +
				"reads commands from stdin until `exit` or EOF; with a " +
				"script, stdin is only read when --continue is set",
			Flags: []cli.Flag{&cli.BoolFlag{
				Name:  "continue",
				Usage: "keep reading stdin after SCRIPT finishes",
			}},
			Action: withConfig(shell),
		}, {
			Name:      "fsck",
			Usage:     "check an image's structure",
			ArgsUsage: "[IMAGE]",
			Action: withConfig(func(c *config.Config, ctx *cli.Context) error {
				image, err := c.ImageOr(ctx.Args().First())
				if err != nil {
					return err
				}
				filesystem, err := fs.Mount(image, c.MountOptions())
				if err != nil {
					return err
				}
				defer filesystem.Close()

				report := filesystem.Check()
				fmt.Printf(
					"%s: %d directories, %d files, %d of %d blocks in use, "+
						"%d of %d inodes free\n",
					image,
					report.Dirs,
					report.Files,
					report.UsedBlocks,
					report.Superblock.TotalBlocks,
					report.Superblock.FreeInodes,
					report.Superblock.TotalInodes,
				)
				for _, problem := range report.Problems {
					fmt.Println(problem)
				}
				if !report.Clean() {
					return cli.Exit(
						fmt.Sprintf("%d problems found", len(report.Problems)),
						1,
					)
				}
				return nil
			}),
		}, {
			Name:  "snapshot",
			Usage: "store and restore whole images",
			Subcommands: []*cli.Command{{
				Name:      "push",
				Usage:     "upload a consistent copy of an image",
				ArgsUsage: "[IMAGE]",
				Flags: []cli.Flag{&cli.StringFlag{
					Name:  "label",
					Usage: "human-readable part of the snapshot key",
					Value: "snapshot",
				}},
				Action: withStore(func(
					c *config.Config,
					store *snapshot.Store,
					ctx *cli.Context,
				) error {
					image, err := c.ImageOr(ctx.Args().First())
					if err != nil {
						return err
					}
					filesystem, err := fs.Mount(image, c.MountOptions())
					if err != nil {
						return err
					}
					defer filesystem.Close()

					key, err := store.Push(filesystem, ctx.String("label"))
					if err != nil {
						return err
					}
					fmt.Println(key)
					return nil
				}),
			}, {
				Name:      "pull",
				Usage:     "download a snapshot into a new image",
				ArgsUsage: "KEY IMAGE",
				Action: withStore(func(
					c *config.Config,
					store *snapshot.Store,
					ctx *cli.Context,
				) error {
					if ctx.NArg() != 2 {
						return cli.Exit("usage: jfs snapshot pull KEY IMAGE", 2)
					}
					return store.Pull(ctx.Args().Get(0), ctx.Args().Get(1))
				}),
			}, {
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "list stored snapshots",
				Action: withStore(func(
					c *config.Config,
					store *snapshot.Store,
					ctx *cli.Context,
				) error {
					keys, err := store.List()
					if err != nil {
						return err
					}
					for _, key := range keys {
						fmt.Println(key)
					}
					return nil
				}),
			}, {
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "delete a stored snapshot",
				ArgsUsage: "KEY",
				Action: withStore(func(
					c *config.Config,
					store *snapshot.Store,
					ctx *cli.Context,
				) error {
					if ctx.NArg() != 1 {
						return cli.Exit("usage: jfs snapshot delete KEY", 2)
					}
					return store.Delete(ctx.Args().First())
				}),
			}},
		}},
	}
}

func withConfig(
	f func(c *config.Config, ctx *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		log.SetLevel(c.LogLevel.Level())
		return f(c, ctx)
	}
}

func withStore(
	f func(c *config.Config, store *snapshot.Store, ctx *cli.Context) error,
) cli.ActionFunc {
	return withConfig(func(c *config.Config, ctx *cli.Context) error {
		if err := c.Validate(); err != nil {
			return err
		}
		objects, err := objectStore(c)
		if err != nil {
			return err
		}
		return f(
			c,
			&snapshot.Store{
				Objects: objects,
				Bucket:  c.SnapshotBucket,
				Prefix:  c.SnapshotPrefix,
				Logger:  log.StandardLogger(),
			},
			ctx,
		)
	})
}

func objectStore(c *config.Config) (types.ObjectStore, error) {
	var objects types.ObjectStore
	switch c.SnapshotStore {
	case config.StoreKindS3:
		s3, err := objectstore.NewS3ObjectStore(c.AWSRegion)
		if err != nil {
			return nil, err
		}
		objects = s3
	default:
		objects = &objectstore.DirObjectStore{Root: c.SnapshotDir}
	}
	if c.SnapshotCompress {
		objects = &objectstore.GzipObjectStore{ObjectStore: objects}
	}
	return objects, nil
}
