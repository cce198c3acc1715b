// Package engine describes the native hydraulic engine the bridge drives.
//
// The Engine interface mirrors the engine's C surface one call per method
// and keeps its integer result codes rather than translating them to Go
// errors: callers need the raw code to tell "ended" from "fault" after a
// step, and the message behind a failure is only available through
// GetError.
//
// Scripted is an in-memory Engine. It opens real model files, registers the
// elements they declare, and evolves values by a small declarative script.
// The conformance harness and the bridge tests run against it.
//
// ARCHITECTURE:
//
// Object kinds and property codes use the engine's own numbering:
//
//	kind      property codes
//	GAGE      1xx
//	SUBCATCH  2xx
//	NODE      3xx
//	LINK      4xx
//
// A property's kind is its code divided by 100, minus one.
package engine
