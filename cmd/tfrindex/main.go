// Command tfrindex builds sidecar .idx files for TFRecord files.
//
// Usage:
//
//	tfrindex <path> [<path> ...]
//	tfrindex -dir <directory> -glob '*.tfrecord'
//
// Exit code is zero if every matched file indexed successfully, non-zero
// if any one file failed; a failure on one file does not stop the others
// from being attempted. Files are scanned concurrently, bounded by
// -multi-file-concurrency, each through mode D's chunked readahead engine
// rather than a plain sequential read.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/getsentry/sentry-go"
	"golang.org/x/sync/errgroup"

	"github.com/tfrecordio/tfrecord/async"
	"github.com/tfrecordio/tfrecord/index"
	"github.com/tfrecordio/tfrecord/internal/config"
	"github.com/tfrecordio/tfrecord/internal/logging"
	"github.com/tfrecordio/tfrecord/internal/version"
	"github.com/tfrecordio/tfrecord/recordio"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.Default()

	fs := flag.NewFlagSet("tfrindex", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	dir := fs.String("dir", "", "Directory to search for files, used together with -glob.")
	glob := fs.String("glob", "*.tfrecord", "Glob pattern for files within -dir.")
	noVerify := fs.Bool("no-verify", !cfg.Frame.VerifyChecksums, "Skip CRC-32C verification while scanning each file.")
	queueDepth := fs.Int("queue-depth", cfg.Async.QueueDepth, "Maximum outstanding reads per file while scanning.")
	chunkSize := fs.Int("chunk-size", cfg.Async.ChunkSize, "Chunk size, in bytes, for the readahead scan of each file.")
	multiFileConcurrency := fs.Int("multi-file-concurrency", cfg.Async.MultiFileConcurrency, "Maximum number of files indexed at once.")
	logLevel := fs.String("log-level", cfg.Logging.Level, "Minimum log level: debug, info, warn, or error.")
	sentryDSN := fs.String("sentry-dsn", cfg.Logging.SentryDSN, "If set, mirrors captured errors and warnings to Sentry at this DSN.")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "tfrindex %s - build sidecar .idx files for TFRecord files\n\n", version.Version)
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  tfrindex <path> [<path> ...]\n")
		fmt.Fprintf(os.Stderr, "  tfrindex -dir <directory> -glob '*.tfrecord'\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	paths, err := resolvePaths(*dir, *glob, fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "tfrindex: %v\n", err)
		return 2
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "tfrindex: no input files")
		return 2
	}

	logger := newLogger(*logLevel, *sentryDSN)

	var failed atomic.Bool
	g := new(errgroup.Group)
	g.SetLimit(*multiFileConcurrency)
	for _, path := range paths {
		g.Go(func() error {
			if err := indexFile(path, !*noVerify, *chunkSize, *queueDepth); err != nil {
				logger.CaptureError(fmt.Errorf("tfrindex: %s: %w", path, err))
				fmt.Fprintf(os.Stderr, "tfrindex: %s: %v\n", path, err)
				failed.Store(true)
				return nil
			}
			fmt.Printf("tfrindex: wrote %s.idx\n", path)
			return nil
		})
	}
	_ = g.Wait()

	if failed.Load() {
		return 1
	}
	return 0
}

// newLogger builds the logger used for the run: a real, level-filtered
// *slog.Logger, optionally mirroring captured failures to Sentry when
// dsn is non-empty.
func newLogger(level, dsn string) *logging.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	base := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))

	if dsn == "" {
		return logging.New(base, nil)
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Release:     version.Version,
		Environment: version.Environment,
	}); err != nil {
		base.Error("tfrindex: failed to initialize sentry", "error", err)
		return logging.New(base, nil)
	}
	return logging.New(base, sentry.CurrentHub().Clone())
}

// resolvePaths returns explicit args verbatim, or the result of globbing
// pattern within dir if dir is set.
func resolvePaths(dir, pattern string, args []string) ([]string, error) {
	if dir == "" {
		return args, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}
	return matches, nil
}

// indexFile reads path as a TFRecord file through mode D's chunked
// readahead engine and writes path+".idx" beside it.
func indexFile(path string, verify bool, chunkSize, queueDepth int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cr := async.NewChunkReader(f, chunkSize, queueDepth)
	defer cr.Close()

	r := recordio.NewReader(cr.BufferedReader())
	r.SetVerify(verify)

	idxPath := path + ".idx"
	out, err := os.Create(idxPath)
	if err != nil {
		return err
	}

	if err := index.Build(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
