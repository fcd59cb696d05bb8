// Package channel defines the delivery channel abstraction and the
// concrete channels shipped with the dispatcher.
//
// A Channel knows how to deliver a rendered message to a single
// recipient over one medium (email, SMS, webhook). Channels report the
// outcome through a Result rather than an error so that provider
// failures can be recorded and retried without losing detail.
//
// The Registry holds the channels enabled for a deployment. Channels
// are registered once at startup and looked up by name at dispatch
// time:
//
//	reg := channel.NewRegistry()
//	reg.Register(channel.NewEmail(mailer, channel.EmailConfig{
//		FromName:    "Notifications",
//		FromAddress: "noreply@example.com",
//	}))
//
//	ch, err := reg.Get("email")
//	if err != nil {
//		// channel not enabled
//	}
//	result := ch.Send(ctx, params)
//
// Email delivery is pluggable through the Mailer interface. SMTPMailer
// talks to a real SMTP server, PostmarkMailer uses the Postmark
// transactional API, and DevMailer writes messages to disk for local
// development.
package channel
