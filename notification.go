package pgpipe

// Notification is an owning record produced by the server when some
// session invokes NOTIFY, spec.md §3 Notification: asynchronous with
// respect to query traffic.
type Notification struct {
	BackendPID uint32
	Channel    string
	Payload    string
}
