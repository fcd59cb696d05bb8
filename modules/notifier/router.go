package notifier

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount in the notifier
// module. Each service is optional and will only be mounted if provided.
type RouterOptions struct {
	Notifications Mountable
	Logs          Mountable
	Queue         Mountable
	Templates     Mountable
}

// Router creates the notifier module router with configurable services.
//
// Example:
//
//	notifications := notifier.NewNotificationService(orch, store, logs, log)
//	queueSvc := notifier.NewQueueService(q, log)
//
//	r := chi.NewRouter()
//	r.Mount("/v1", notifier.Router(notifier.RouterOptions{
//	    Notifications: notifications,
//	    Queue:         queueSvc,
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.Notifications != nil {
		r.Mount("/notifications", opts.Notifications.Handle())
	}
	if opts.Logs != nil {
		r.Mount("/logs", opts.Logs.Handle())
	}
	if opts.Queue != nil {
		r.Mount("/queue", opts.Queue.Handle())
	}
	if opts.Templates != nil {
		r.Mount("/templates", opts.Templates.Handle())
	}

	return r
}
