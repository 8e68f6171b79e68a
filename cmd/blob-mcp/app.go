package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/blob-tools-mcp/internal/colortable"
	"github.com/ironsheep/blob-tools-mcp/internal/config"
	"github.com/ironsheep/blob-tools-mcp/internal/detection"
	"github.com/ironsheep/blob-tools-mcp/internal/imaging"
	"github.com/ironsheep/blob-tools-mcp/internal/pipeline"
	"github.com/ironsheep/blob-tools-mcp/internal/server"
)

// envLogLevel enables debug logging when set to "debug".
const envLogLevel = "BLOB_MCP_LOG_LEVEL"

const (
	flagConfig      = "config"
	flagDebug       = "debug"
	flagTable       = "table"
	flagJobs        = "jobs"
	flagMinArea     = "min-area"
	flagOut         = "out"
	flagColor       = "color"
	flagMaxDistance = "max-distance"
)

func newApp() *cli.App {
	var logger *zap.SugaredLogger

	return &cli.App{
		Name:  "blob-mcp",
		Usage: "color blob segmentation over MCP",
		Description: "With no command, blob-mcp serves MCP over stdin/stdout. " +
			"Configure it in your MCP client (e.g., Claude Desktop).",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE` (.json)",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging (or set " + envLogLevel + "=debug)",
			},
			&cli.StringFlag{
				Name:  flagTable,
				Usage: "color table `FILE`, overrides the config and " + config.EnvColorTable,
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			logger, err = newLogger(c.Bool(flagDebug) || os.Getenv(envLogLevel) == "debug")
			return err
		},
		After: func(*cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return serve(c, logger)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve MCP over stdin/stdout",
				Action: func(c *cli.Context) error {
					return serve(c, logger)
				},
			},
			{
				Name:      "segment",
				Usage:     "segment image files and print their blobs as JSON",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagJobs,
						Value: runtime.NumCPU(),
						Usage: "number of files processed at once",
					},
					&cli.IntFlag{
						Name:  flagMinArea,
						Usage: "drop blobs smaller than this many pixels",
					},
				},
				Action: func(c *cli.Context) error {
					return segmentFiles(c, logger)
				},
			},
			{
				Name:  "table",
				Usage: "color table utilities",
				Subcommands: []*cli.Command{
					{
						Name:  "build",
						Usage: "build a color table from a reference palette",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     flagOut,
								Aliases:  []string{"o"},
								Required: true,
								Usage:    "write the table to `FILE`",
							},
							&cli.StringSliceFlag{
								Name:     flagColor,
								Required: true,
								Usage:    "palette entry as `LABEL=#RRGGBB`, may be repeated",
							},
							&cli.Float64Flag{
								Name:  flagMaxDistance,
								Value: colortable.DefaultMaxDistance,
								Usage: "largest Lab distance that still receives a label, 0 for no limit",
							},
						},
						Action: func(c *cli.Context) error {
							return buildTable(c, logger)
						},
					},
				},
			},
			{
				Name:  "version",
				Usage: "print version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "blob-mcp %s\n", Version)
					fmt.Fprintf(c.App.Writer, "  Build time: %s\n", BuildTime)
					fmt.Fprintf(c.App.Writer, "  Git commit: %s\n", GitCommit)
					return nil
				},
			},
		},
	}
}

// newLogger logs to stderr; stdout carries the MCP protocol.
func newLogger(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l.Sugar(), nil
}

// loadConfig layers the config file, the environment and the --table flag.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Empty()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if table := c.String(flagTable); table != "" {
		cfg.ColorTable = &table
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serve(c *cli.Context, logger *zap.SugaredLogger) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger.Debugw("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx, c.App.Reader, c.App.Writer); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// fileBlobs is the segment command's output for one file.
type fileBlobs struct {
	Path    string                `json:"path"`
	Blobs   []detection.Detection `json:"blobs"`
	Summary detection.Summary     `json:"summary"`
}

func segmentFiles(c *cli.Context, logger *zap.SugaredLogger) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return errors.New("segment needs at least one image file")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.GetColorTable() == "" {
		return fmt.Errorf("segment needs a color table: %w", pipeline.ErrNoTable)
	}
	table, err := colortable.Load(cfg.GetColorTable())
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg, colortable.NewHolder(table))
	if err != nil {
		return err
	}

	pps := []detection.Postprocessor{detection.NewAreaFilter(c.Int(flagMinArea)), detection.SortByArea()}
	cache := imaging.NewImageCache()
	results := make([]fileBlobs, len(paths))

	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(max(c.Int(flagJobs), 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := cache.Load(path)
			if err != nil {
				return err
			}
			// each frame is used once
			cache.Evict(path)
			f, err := p.Segment(img)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			dets := detection.Apply(detection.FromBlobs(f.Blobs), pps...)
			results[i] = fileBlobs{Path: path, Blobs: dets, Summary: detection.Summarize(dets)}
			logger.Debugw("segmented", "path", path, "blobs", len(dets))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func buildTable(c *cli.Context, logger *zap.SugaredLogger) error {
	var entries []colortable.PaletteEntry
	for _, entry := range c.StringSlice(flagColor) {
		name, hex, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("palette entry %q: want LABEL=#RRGGBB", entry)
		}
		l, err := colortable.ParseLabel(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		entries = append(entries, colortable.PaletteEntry{Label: l, Hex: strings.TrimSpace(hex)})
	}

	t, err := colortable.FromPalette(c.Context, entries, c.Float64(flagMaxDistance))
	if err != nil {
		return err
	}
	out := c.String(flagOut)
	if err := t.Save(out); err != nil {
		return err
	}

	hist := t.Histogram()
	logger.Infow("built color table", "path", out, "colors", len(entries))
	for _, name := range colortable.LabelNames() {
		l, _ := colortable.ParseLabel(name)
		if n := hist[l]; n > 0 {
			fmt.Fprintf(c.App.Writer, "%-8s %d cells\n", name, n)
		}
	}
	return nil
}
