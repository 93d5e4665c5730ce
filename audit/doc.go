// Package audit is an Atelier extension that bridges project lifecycle
// events to an audit trail backend.
//
// Every project, stage, message, and artifact hook emits a structured audit
// event through the [Recorder] interface. The extension assigns severity
// levels (info for normal operations, warning for stage failures, critical
// for terminal project failures) and metadata (stage name, elapsed time,
// errors).
//
// # Usage
//
//	audit.New(audit.RecorderFunc(func(ctx context.Context, evt *audit.Event) error {
//	    return json.NewEncoder(w).Encode(evt)
//	}))
//
// # Selective filtering
//
//	audit.New(recorder,
//	    audit.WithActions(
//	        audit.ActionProjectFailed,
//	        audit.ActionStageFailed,
//	    ),
//	)
package audit
