// Package bridge couples an Orchestrator to the native engine through one
// explicit Session object.
//
// A Session owns everything a realization needs: the loaded mapping, the
// resolved engine handles, the pending input buffer and the exchange phase.
// Its lifecycle has two states:
//
//	Uninitialized --Initialize--> Running
//	Running --Cleanup--> Uninitialized
//	Running --Calculate (engine ended)--> Uninitialized
//
// Initialize opens the model, starts the run, loads the mapping and
// resolves every entry to an engine handle. Resolution is all or nothing:
// the first failure ends and closes the engine before the error returns.
//
// # Input deferral
//
// The first Calculate of a session reads the initial outputs without
// stepping and only buffers the caller's inputs. Every later Calculate
// applies the buffered inputs, steps once, reads outputs and buffers the
// new inputs. An input therefore takes effect one call after it is
// supplied, so each returned output describes only inputs the caller had
// already seen the effect of.
//
// Errors are *Error values tagged with a Kind. The abi package converts
// them to status codes at the call boundary.
package bridge
