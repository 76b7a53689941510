// Package config collects the tunables for every engine and collaborator
// in this module into one struct-of-structs, the way the rest of the
// pack's services do, so that a CLI or an embedding application has one
// place to wire flags, environment variables, or a config file into.
package config

// Config is the top-level configuration for a tfrecord pipeline: which
// integrity checks to run, and how aggressively each async engine mode is
// allowed to pursue I/O concurrency.
type Config struct {
	Frame   FrameConfig
	Async   AsyncConfig
	Logging LoggingConfig
}

// FrameConfig controls the sync reader and writer.
type FrameConfig struct {
	// VerifyChecksums toggles CRC-32C verification on reads. Disabling it
	// trades integrity checking for throughput on trusted storage.
	VerifyChecksums bool
}

// AsyncConfig controls every async engine mode.
type AsyncConfig struct {
	// QueueDepth is Q: the maximum number of reads any one engine keeps
	// outstanding at once.
	QueueDepth int

	// ChunkSize is the fixed read size used by the mode D chunk reader.
	ChunkSize int

	// MultiFileConcurrency bounds how many files are processed at once
	// (cmd/tfrindex uses it as its concurrent-file limit); it is
	// independent of QueueDepth, which bounds the reads of one engine.
	MultiFileConcurrency int
}

// LoggingConfig controls the module's structured logger.
type LoggingConfig struct {
	// Level is a log/slog level name: "debug", "info", "warn", or "error".
	Level string

	// SentryDSN, if set, enables mirroring captured errors and warnings
	// to Sentry at this DSN.
	SentryDSN string
}

// Default returns the configuration new engines should use absent
// operator overrides.
func Default() *Config {
	return &Config{
		Frame: FrameConfig{
			VerifyChecksums: true,
		},
		Async: AsyncConfig{
			QueueDepth:           32,
			ChunkSize:            1 << 20, // 1 MiB
			MultiFileConcurrency: 32,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
