// Package server implements the WebSocket transport of the relay.
//
// The Hub owns connection lifecycle, each Client runs a read pump, a write
// pump and a route worker, and the Dispatcher turns decoded frames into calls
// on the message router and the signaling relay. Configuration, origin checks
// and HTTP routing live alongside in their own files.
package server
