// Package logger provides a context-aware wrapper around log/slog with
// functional options and attribute helpers shared across the dispatcher.
//
// New builds a *slog.Logger from a set of Option functions: output
// format (text or json), minimum level, static attributes applied to
// every record, and ContextExtractor callbacks that pull request-scoped
// values such as a request id out of context.Context on every Handle
// call.
//
// The helpers in attr.go keep attribute names consistent across
// packages: NotificationID, JobID, Channel, Attempt and friends all map
// to fixed keys so log queries do not have to chase spelling variants.
//
// # Usage
//
//	log := logger.New(
//		logger.WithProduction("notifyd"),
//		logger.WithContextValue("request_id", requestIDKey),
//	)
//	logger.SetAsDefault(log)
//
//	log.Info("job delivered",
//		logger.JobID(job.ID),
//		logger.Channel(job.Channel),
//		logger.Attempt(attempt),
//	)
package logger
