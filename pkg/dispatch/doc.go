// Package dispatch wires intake and delivery together: the
// Orchestrator turns validated send requests into persisted
// notifications plus one queue job per channel, and the worker Pool
// drains those jobs through the channel registry with bounded retries.
//
// Intake path:
//
//	orch, _ := dispatch.NewOrchestrator(templates, store, q)
//	receipt, err := orch.Send(ctx, dispatch.SendRequest{
//		TemplateName: "welcome",
//		Recipient:    channel.Recipient{Email: "ana@example.com", Name: "Ana"},
//		Data:         map[string]any{"code": "123"},
//		Channels:     []string{"email"},
//	})
//
// Validation errors (unknown template, missing recipient fields,
// missing template variables, schedule in the past) surface
// synchronously from Send; everything after the receipt is asynchronous
// and observable only through the notification status and the delivery
// log.
//
// Delivery path:
//
//	pool, _ := dispatch.NewPool(q, orch, registry, store, logs,
//		dispatch.WithConcurrency(8))
//	err := pool.Run(ctx) // blocks until ctx is cancelled
//
// Each executor leases a job, appends a processing log entry, renders
// the message from the job's own payload, sends it over the resolved
// channel, and either acks the job or schedules a retry with backoff.
// Every outcome, success or failure, lands in the delivery log before
// the notification status moves.
package dispatch
