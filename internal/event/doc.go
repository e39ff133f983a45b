// Package event implements the notification bus: a fixed catalog of typed,
// synchronous publish/subscribe channels through which every state change in
// the simulator is announced.
//
// # Channels
//
// Channels are created lazily with their payload type by Channel, which
// panics on names outside the catalog:
//
//	created := event.Channel[vfs.FileCreateEvent](bus, event.FilesDidCreate)
//	sub := created.Subscribe(func(e vfs.FileCreateEvent) { ... })
//	defer sub.Dispose()
//
// Packages that own a channel expose a typed accessor, e.g. vfs.DidCreate,
// so callers never spell the payload type.
//
// # Delivery
//
// Fire delivers to a snapshot of the listeners, in subscription order, on
// the calling goroutine. A listener added during delivery first sees the
// next firing, and one disposed during delivery still receives the current
// one.
// A panicking listener is recovered, logged, and kept in Bus.Errors; the
// remaining listeners still run.
//
// # Observers
//
// Tap and Recorder see every firing on the channels matching a dot pattern,
// where "*" matches one segment and "**" any number:
//
//	rec := event.NewRecorder(bus, "files.*")
//	defer rec.Dispose()
//
// Taps run before the channel's own listeners and receive a Record carrying
// a bus-wide sequence number.
//
// # Reset
//
// Bus.Reset severs every subscription and tap while keeping the channel
// objects, so emitters held by components stay valid.
package event
