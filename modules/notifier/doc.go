// Package notifier wires the notification system's services into an
// HTTP API. Handlers are thin: they bind requests, call the
// orchestrator or a store, and translate domain errors into HTTP
// status codes. Every response uses the JSONResponse envelope.
//
// The module is assembled through Router, which mounts only the
// services the caller provides:
//
//	r := chi.NewRouter()
//	r.Mount("/v1", notifier.Router(notifier.RouterOptions{
//	    Notifications: notifier.NewNotificationService(orch, store, logs, log),
//	    Logs:          notifier.NewLogService(logs, log),
//	    Queue:         notifier.NewQueueService(q, log),
//	    Templates:     notifier.NewTemplateService(templates, log),
//	}))
//
// Routes:
//
//	POST   /notifications              submit a send request
//	POST   /notifications/validate     dry-run intake validation
//	GET    /notifications              list with status/channel/priority filters
//	GET    /notifications/{id}         fetch one notification
//	POST   /notifications/{id}/cancel  cancel before delivery
//	GET    /notifications/{id}/logs    delivery log for one notification
//	GET    /logs                       search the delivery log
//	GET    /logs/stats                 aggregate delivery stats
//	GET    /logs/stats/channels        per-channel breakdown
//	GET    /logs/failed                recent failures
//	GET    /logs/timeline              bucketed activity timeline
//	GET    /logs/{id}                  fetch one log entry
//	GET    /queue/stats                queue depth by state
//	GET    /queue/jobs/{id}            fetch one job
//	POST   /queue/pause                stop leasing jobs
//	POST   /queue/resume               resume leasing
//	GET    /templates                  list templates
//	POST   /templates                  create a template
//	GET    /templates/{name}           fetch by name
//	PUT    /templates/{name}           update by name
//	DELETE /templates/{name}           delete by name
package notifier
