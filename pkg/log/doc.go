// Package log sets up the operational log of the reconnection service.
//
// Every line is written as
//
//	<timestamp> <message> [key=value ...]
//
// to a single file next to the executable's working directory. The file is
// rotated by size and, when the process runs attached to a terminal, the same
// lines are mirrored to stderr.
//
// Callers only ever see a logr.Logger:
//
//	sink, _ := log.NewFileLogger("log.txt", log.ModeTruncate)
//	defer sink.Close()
//
//	logger, _ := log.New(sink, log.Options{Level: "info", Console: log.TerminalConsole()})
//	logger.Info("Waiting for network status changes")
//
// Writes are serialized by the FileLogger, so concurrent goroutines never
// interleave partial lines.
package log
