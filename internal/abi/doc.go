// Package abi is the fixed call boundary the Orchestrator uses.
//
// Every call carries a selector, a status out-parameter and two float64
// arrays:
//
//	0   Initialize
//	1   Calculate
//	2   ReportVersion          out[0] = version
//	3   ReportArgumentCounts   out[0] = inputs, out[1] = outputs
//	99  Cleanup
//
// Status 0 is success, a positive status is a failure without a message,
// and -1 is a failure whose NUL-terminated message address is stored in
// the bits of out[0]. The message stays valid until the next failing call.
//
// A Dispatcher serves one bridge.Session. Install registers the single
// process-wide Dispatcher that Call forwards to.
package abi
