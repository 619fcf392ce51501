// Package event provides the pub-sub bus and event vocabulary that decouple
// the crosstalk simulation core from its observers.
//
// The floor controllers, transmitters, receivers, and thought sources publish
// events as they work; the terminal dashboard, the websocket relay, the
// logger, and tests subscribe. Producers never know who is listening and
// consumers hold no reference into the simulation.
//
// # Main Types
//
//   - [Event]: Interface all events implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub dispatcher, safe for concurrent use
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Vocabulary
//
// Agent status (the primary stream):
//   - [StatusEvent]: (agent, activity, status) — activity is one of
//     thinking/talking/listening, status one of on/off/message_sent/
//     message_received/message_generated
//
// Floor telemetry:
//   - [FloorGrantedEvent]: an agent acquired the floor (possibly by interrupt)
//   - [FloorReleasedEvent]: a tenure ended, with the reason
//   - [FloorCollisionEvent]: simultaneous intent resolved by tie-break
//
// Transcript:
//   - [MessageEvent]: one delivered message, as seen by the receiver
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers are called synchronously on the
// publisher's goroutine and are protected against panics; a panicking handler
// does not prevent delivery to the remaining handlers. Within one agent and
// one activity, publication order matches the order of occurrence; no ordering
// is guaranteed across agents.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	bus.Subscribe(event.TypeFloorGranted, func(e event.Event) {
//	    granted := e.(event.FloorGrantedEvent)
//	    log.Printf("%s took the floor", granted.AgentID)
//	})
//
//	id := bus.SubscribeAll(recorder.Handle)
//	defer bus.Unsubscribe(id)
//
//	bus.Publish(event.NewStatusEvent("P1", event.ActivityTalking, event.StatusOn))
package event
