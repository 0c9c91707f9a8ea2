// Package signaling implements the connection registry and typed-message
// dispatcher behind the two WebSocket signaling channels.
//
// The presence channel (/list) tracks who is online and relays chat and
// call-initiation messages; the call channel (/call) relays the
// offer/answer/candidate/endCall messages of an already-agreed call. The two
// channels share no state: each owns an independent registry, and a user is
// reachable on a channel only through a connection opened against that
// channel's endpoint.
//
// Delivery is best-effort. Unreachable recipients, malformed frames, and
// failed sends are logged and counted, never surfaced to the sender.
package signaling
