package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	postlabel "github.com/anatolykoptev/go-postlabel"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:  "postlabel",
		Usage: "label Bluesky posts by keywords, cited domains and reference images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"POSTLABEL_LOG_LEVEL", "LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log output format (json, text)",
				Value:   "text",
				EnvVars: []string{"POSTLABEL_LOG_FORMAT"},
			},
		},
		Before: func(cctx *cli.Context) error {
			return configLogger(cctx, os.Stderr)
		},
		Commands: []*cli.Command{
			labelCmd,
			hashCmd,
			checkDataCmd,
		},
	}
	return app.Run(args)
}

func configLogger(cctx *cli.Context, w io.Writer) error {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		return fmt.Errorf("unknown log level: %q", cctx.String("log-level"))
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cctx.String("log-format")) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format: %q", cctx.String("log-format"))
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func inputDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "input-dir",
		Usage:   "directory holding the reference CSV files and the reference image folder",
		Value:   "input-data",
		EnvVars: []string{"POSTLABEL_INPUT_DIR"},
	}
}

var labelCmd = &cli.Command{
	Name:      "label",
	Usage:     "moderate posts and print one JSON line of labels per post",
	ArgsUsage: "<post-url>...",
	Flags: []cli.Flag{
		inputDirFlag(),
		&cli.StringFlag{
			Name:    "appview-host",
			Usage:   "AppView used to fetch posts",
			Value:   postlabel.DefaultAppViewHost,
			EnvVars: []string{"POSTLABEL_APPVIEW_HOST"},
		},
		&cli.IntFlag{
			Name:    "max-distance",
			Usage:   "largest pHash Hamming distance (0-64) counted as a reference image match; 0 requires identical hashes",
			Value:   postlabel.DefaultMaxDistance,
			EnvVars: []string{"POSTLABEL_MAX_DISTANCE"},
		},
		&cli.IntFlag{
			Name:    "max-images",
			Usage:   "maximum attached images checked per post",
			Value:   postlabel.DefaultMaxImages,
			EnvVars: []string{"POSTLABEL_MAX_IMAGES"},
		},
		&cli.DurationFlag{
			Name:    "image-timeout",
			Usage:   "per-image download timeout",
			Value:   10 * time.Second,
			EnvVars: []string{"POSTLABEL_IMAGE_TIMEOUT"},
		},
		&cli.IntFlag{
			Name:    "cache-size",
			Usage:   "number of image hashes kept in memory",
			Value:   postlabel.DefaultCacheSize,
			EnvVars: []string{"POSTLABEL_CACHE_SIZE"},
		},
		&cli.IntFlag{
			Name:    "workers",
			Usage:   "posts moderated concurrently",
			Value:   postlabel.DefaultBatchWorkers,
			EnvVars: []string{"POSTLABEL_WORKERS"},
		},
		&cli.BoolFlag{
			Name:    "skip-images-on-any-label",
			Usage:   "skip image matching once any text label (including citations) was found",
			EnvVars: []string{"POSTLABEL_SKIP_IMAGES_ON_ANY_LABEL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to serve Prometheus metrics on (empty disables)",
			EnvVars: []string{"POSTLABEL_METRICS_LISTEN"},
		},
	},
	Action: runLabel,
}

func runLabel(cctx *cli.Context) error {
	if cctx.NArg() == 0 {
		return errors.New("at least one post URL is required")
	}

	ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	data, err := postlabel.LoadReferenceData(cctx.String("input-dir"))
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}
	slog.Info("reference data loaded",
		"dir", cctx.String("input-dir"),
		"flagged_terms", len(data.FlaggedTerms()),
		"reference_images", len(data.ReferenceHashes()),
	)

	if addr := cctx.String("metrics-listen"); addr != "" {
		srv := startMetrics(addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	httpClient := postlabel.NewHTTPClient()
	cfg := &postlabel.Config{
		Data:                 data,
		Posts:                postlabel.NewClient(cctx.String("appview-host"), httpClient),
		Cache:                postlabel.NewLRUCache(cctx.Int("cache-size")),
		HTTPClient:           httpClient,
		MaxDistance:          cctx.Int("max-distance"),
		MaxImages:            cctx.Int("max-images"),
		ImageTimeout:         cctx.Duration("image-timeout"),
		SkipImagesOnAnyLabel: cctx.Bool("skip-images-on-any-label"),
	}
	if cfg.MaxDistance < 0 {
		return fmt.Errorf("max-distance must be between 0 and %d", postlabel.HashBits)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, res := range cfg.ModerateBatch(ctx, cctx.Args().Slice(), cctx.Int("workers")) {
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

func startMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server exited", "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
	return srv
}

var hashCmd = &cli.Command{
	Name:      "hash",
	Usage:     "print the perceptual hash of image files",
	ArgsUsage: "<image-file>...",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() == 0 {
			return errors.New("at least one image file is required")
		}
		for _, path := range cctx.Args().Slice() {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			h, err := postlabel.HashImageData(data, postlabel.DefaultMaxImagePixels)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Printf("%s\t%s\n", h.ToString(), path)
		}
		return nil
	},
}

var checkDataCmd = &cli.Command{
	Name:  "check-data",
	Usage: "validate a reference data directory",
	Flags: []cli.Flag{
		inputDirFlag(),
	},
	Action: func(cctx *cli.Context) error {
		data, err := postlabel.LoadReferenceData(cctx.String("input-dir"))
		if err != nil {
			return err
		}
		fmt.Printf("flagged terms: %d\nreference images: %d\n", len(data.FlaggedTerms()), len(data.ReferenceHashes()))
		return nil
	},
}
