/*
Package codeflow records how programs execute, one observable step at a time.

A trace is the ordered list of steps a program takes: declarations,
assignments, loop checks, branches and output, each with an immutable
snapshot of the variables visible at that point. Javascript programs run in
a bounded tree-walking interpreter. Other languages run with a local
toolchain when one is configured and installed, and are otherwise analyzed
line by line without executing anything.

# Usage

	eng := codeflow.New()

	res, err := eng.Execute(ctx, domain.Source{
		Code:     "let i = 0; while (i < 2) { i = i + 1; }",
		Language: "javascript",
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, s := range res.Steps {
		fmt.Println(s.Line, s.Kind, s.Description)
	}

Every trace is bounded by a start and an end step and never exceeds the
configured step ceiling. res.FlowGraph holds the deduplicated control-flow
graph of the trace, with one node per distinct (kind, line).

# Playback

Package session replays traces step by step over a persistent connection
(see pkg/adapters/ws), with auto-play, pause, jump and step back. The
cmd/codeflow binary serves the playback protocol, a one-shot HTTP API and
an MCP server, and can trace files from the terminal.
*/
package codeflow
