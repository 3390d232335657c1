/*
Package ports defines the driven ports (interfaces) of the codeflow engine.

These interfaces decouple trace computation from parsing, external toolchains,
caching and transport, so each can be swapped without touching the core.

# Key Interfaces

  - Parser: turns source text into a program, or a *domain.SyntaxError.
  - ProcessRunner: compiles and runs a program with a real toolchain.
  - Tracer: produces the Trace for a Source. Sessions depend only on this.
  - TraceStore: caches computed Traces by key (memory or Redis).
  - DistributedLocker: coordinates trace computation across replicas.
*/
package ports
