package logging

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// InitLogging fans structured logs out to a json log file and a readable
// text handler on stderr, and installs the result as the default logger.
func InitLogging(logFile *os.File, service string) {
	var jsonHandler slog.Handler = slog.NewJSONHandler(logFile, nil)
	jsonHandler = jsonHandler.WithAttrs([]slog.Attr{
		slog.String("service", service),
	})

	textHandler := slog.NewTextHandler(os.Stderr, nil)

	logger := slog.New(slogmulti.Fanout(jsonHandler, textHandler))
	slog.SetDefault(logger)

	slog.Info("logging initialized", "log_file", logFile.Name())
}
