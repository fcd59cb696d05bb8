// Package notification holds the notification aggregate, its status
// machine, and the append-only delivery log.
//
// A Notification records one logical send request: who to reach, which
// template to render, and over which channels. Its status moves
// forward through a fixed machine (pending, queued, processing, then
// sent or failed) with cancelled as a hard terminal state that no
// later write may leave. When a notification fans out to several
// channels the status reflects the most recent per-channel outcome.
//
// Every delivery attempt appends a DeliveryLog entry; entries are never
// mutated or deleted. The read side (Stats, StatsByChannel, Failed,
// Timeline, Search) is a set of pure projections over that log.
//
// Store and LogStore abstract persistence. MemoryStore and
// MemoryLogStore back tests and single-process deployments;
// PostgresStore and PostgresLogStore persist through pgx.
package notification
