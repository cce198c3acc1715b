package abi

import (
	"context"
	"sync"
)

var (
	installMu sync.RWMutex
	installed *Dispatcher

	// uninstalled carries the message for calls made before Install.
	uninstalled messageBuffer
)

// Install makes d the process-wide Dispatcher and returns the previous
// one, which may be nil. Install(nil) removes it.
func Install(d *Dispatcher) *Dispatcher {
	installMu.Lock()
	defer installMu.Unlock()
	prev := installed
	installed = d
	return prev
}

// Installed returns the process-wide Dispatcher, or nil.
func Installed() *Dispatcher {
	installMu.RLock()
	defer installMu.RUnlock()
	return installed
}

// Call is the process-wide entry point: it dispatches to the installed
// Dispatcher and stores the result in status.
func Call(selector int, status *int, in, out []float64) {
	d := Installed()
	if d == nil {
		if len(out) == 0 {
			*status = StatusFailure
			return
		}
		installMu.Lock()
		out[0] = uninstalled.set("bridge not installed")
		installMu.Unlock()
		*status = StatusFailureWithMessage
		return
	}
	*status = d.Dispatch(context.Background(), Selector(selector), in, out)
}
