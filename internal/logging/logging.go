package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"matchhub/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	writerMu sync.RWMutex
	sink     io.Writer = os.Stdout
	fileSink *sizeLimitedWriter
)

// Init configures the global zerolog logger. Calling it again replaces the
// previous sink and closes a previously opened log file.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var base io.Writer = os.Stdout
	var file *sizeLimitedWriter
	if path := strings.TrimSpace(cfg.File); path != "" {
		w, err := newSizeLimitedWriter(path, cfg.MaxMB)
		if err == nil {
			file = w
			base = io.MultiWriter(os.Stdout, w)
		}
	}

	output := base
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: base}
	}

	writerMu.Lock()
	if fileSink != nil {
		_ = fileSink.Close()
	}
	fileSink = file
	sink = base
	writerMu.Unlock()

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	if cfg.File != "" && file == nil {
		log.Warn().Str("path", cfg.File).Msg("log_file_unavailable")
	}
}

// Writer returns the raw sink used by the global logger, for handlers that
// format their own lines (the HTTP request logger).
func Writer() io.Writer {
	writerMu.RLock()
	defer writerMu.RUnlock()
	return sink
}

// Close flushes and closes the log file, if any.
func Close() error {
	writerMu.Lock()
	defer writerMu.Unlock()
	if fileSink == nil {
		return nil
	}
	err := fileSink.Close()
	fileSink = nil
	sink = os.Stdout
	return err
}
