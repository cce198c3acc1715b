package engine

// Engine is the native engine surface. Methods returning int return 0 on
// success and a non-zero engine error code otherwise.
//
// Implementations are not safe for concurrent use; the engine is not
// reentrant.
type Engine interface {
	// Open loads the model and names the report and binary output files.
	Open(model, report, output string) int

	// Start begins a run. saveResults controls whether the binary output
	// file is written.
	Start(saveResults bool) int

	// Step advances one routing step. code is 0 while the run continues,
	// positive once it has ended and negative on a fault. elapsed is in
	// days and is 0 once the run has ended.
	Step() (elapsed float64, code int)

	// End finishes the run.
	End() int

	// Close releases the model.
	Close() int

	// GetValue reads a property of the element at handle.
	GetValue(p Property, handle int) float64

	// SetValue writes a property of the element at handle.
	SetValue(p Property, handle int, value float64)

	// GetIndex returns the handle of a named element, or a negative value
	// when the model has no such element.
	GetIndex(kind ObjectKind, name string) int

	// GetError returns the message of the most recent failure.
	GetError() string
}
