/*
Package session implements interactive trace playback.

A Controller owns one trace, a cursor into it and at most one auto-play
timer. Commands arrive from a transport as protocol.Command values and
responses leave through an Emitter. The Manager keeps the live controllers
of a process keyed by session ID.
*/
package session
