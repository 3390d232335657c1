/*
Package domain contains the core domain models of the codeflow trace engine.

It defines the recorded history of a program run and the structures derived
from it. The package is kept free of I/O, transport and persistence
concerns, following Hexagonal Architecture principles.

# Key Entities

  - Step: one recorded program event plus an immutable Snapshot of state.
  - Trace: the ordered, bounded sequence of Steps for one run.
  - FlowGraph: deduplicated node/edge graph compiled from a Trace.
  - Phase: playback state of a session.
  - Source: the request to trace (code, queued inputs, language).
*/
package domain
