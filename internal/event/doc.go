/*
Package event provides a type-safe pub/sub event system for the kuuzuki
governance core.

The bus decouples the governance components from their observers: the
analytics store publishes error.occurred, error.metrics, error.pattern and
alert.raised; the permission engine publishes permission.decision; the tool
resolver publishes tool.resolved; the config watcher publishes
config.updated. External layers (TUI, web) subscribe without the core
depending on them.

The package is built on watermill's gochannel for infrastructure while
keeping direct-call semantics so event data retains its concrete Go type.

Publishing:

	event.Publish(event.Event{
		Type: event.AlertRaised,
		Data: event.AlertRaisedData{ID: id, Kind: "error_rate", Message: msg},
	})

Subscribing:

	unsubscribe := event.Subscribe(event.AlertRaised, func(e event.Event) {
		data := e.Data.(event.AlertRaisedData)
		logging.Warn().Str("alert", data.ID).Msg(data.Message)
	})
	defer unsubscribe()

Subscribers invoked through PublishSync run in the publisher's goroutine and
must complete quickly, avoid re-entrant publishing, and never block on
channels without a default case.

For testing or isolation, create a dedicated bus with NewBus and close it
when done; Reset replaces the global bus between tests.
*/
package event
