package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON on stdout keeps log
// shippers happy; services receive it via their WithLogger option.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
