// Package logging builds the *slog.Logger shared by every crudgen component.
//
//	log := logging.New(logging.Config{Level: logging.LevelDebug, Format: logging.FormatJSON})
//	log.Info("server started", "port", 4280)
//
// Components accept a *slog.Logger through their constructor or a SetLogger
// method and fall back to Nop() when given nil. Tee fans records out to several
// handlers, which the CLI uses to mirror the console log into a JSON log file.
package logging
