// Package harness runs conformance scenarios against the bridge.
//
// A scenario names a model, scripts the in-memory engine and lists the
// ABI calls the Orchestrator makes. The harness copies the model into a
// temporary directory, generates the mapping (or copies a given one),
// drives an abi.Dispatcher over a bridge.Session and records every ABI
// call followed by the engine calls it caused.
//
// # Scenario Format
//
//	name: pond_deferral
//	description: "Inputs take effect one call later"
//	model: ../models/pond.inp
//	engine:
//	  initial:
//	    - {property: NODE_VOLUME, name: POND, value: 10}
//	  responses:
//	    - from: {property: GAGE_RAINFALL, name: R1}
//	      to: {property: NODE_VOLUME, name: POND}
//	      gain: 2
//	  end_after: 3
//	flow:
//	  - call: initialize
//	    expect: {status: 0}
//	  - call: calculate
//	    in: [0, 5]
//	    expect: {status: 0, out: [10]}
//	assertions:
//	  - type: call_count
//	    op: step
//	    count: 0
//
// # Assertion Types
//
//   - engine_call: an exact engine call line appears in the trace
//   - call_order: engine operations appear in the given order
//   - call_count: an engine operation ran exactly N times
//   - session_state: the final session state (Running or Uninitialized)
//   - engine_value: an engine property value at the end of the run
//   - final_state: a journal row (sessions or steps) carries given values
//
// # Deterministic Traces
//
// Session ids come from a sequence generator, trace events are numbered
// by a logical clock, and the temporary directory is replaced by $WORK,
// so a scenario always produces the same trace. Traces are compared
// against golden files.
package harness
