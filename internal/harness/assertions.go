package harness

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/hydrobridge/internal/bridge"
	"github.com/roach88/hydrobridge/internal/engine"
	"github.com/roach88/hydrobridge/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nEngine calls:\n")
		n := 0
		for _, event := range e.Trace {
			if event.Type == EventEngine {
				n++
				fmt.Fprintf(&buf, "  [%d] %s\n", n, event.Call)
			}
		}
	}
	return buf.String()
}

// matchesOp reports whether an engine call line is a call to op.
func matchesOp(call, op string) bool {
	return call == op || strings.HasPrefix(call, op+" ")
}

// assertEngineCall checks that the trace contains the exact engine call.
func assertEngineCall(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type == EventEngine && event.Call == assertion.Call {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEngineCall,
		Expected: fmt.Sprintf("engine call %q", assertion.Call),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertCallOrder checks that engine operations first appear in the given
// order. Operations don't need to be consecutive.
func assertCallOrder(trace []TraceEvent, assertion Assertion) error {
	// Each expected op must be found after the previous one.
	pos := 0
	for _, op := range assertion.Calls {
		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if event.Type == EventEngine && matchesOp(event.Call, op) {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertCallOrder,
				Expected: fmt.Sprintf("engine calls in order: %v", assertion.Calls),
				Actual:   fmt.Sprintf("no %s call after the preceding calls", op),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertCallCount checks that an engine operation ran exactly Count times.
func assertCallCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == EventEngine && matchesOp(event.Call, assertion.Op) {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertCallCount,
			Expected: fmt.Sprintf("%d %s calls", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d calls", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertSessionState(sess *bridge.Session, assertion Assertion) error {
	if got := sess.State().String(); got != assertion.State {
		return &AssertionError{
			Type:     AssertSessionState,
			Expected: assertion.State,
			Actual:   got,
		}
	}
	return nil
}

func assertEngineValue(eng *engine.Scripted, assertion Assertion) error {
	got := eng.Value(*assertion.Target)
	if math.Abs(got-assertion.Value) > outTolerance {
		return &AssertionError{
			Type:     AssertEngineValue,
			Expected: fmt.Sprintf("%s = %v", assertion.Target, assertion.Value),
			Actual:   fmt.Sprintf("%s = %v", assertion.Target, got),
		}
	}
	return nil
}

// assertFinalState checks that exactly one journal row matches Where and
// carries the Expect values (subset semantics).
//
// Security: Table and column names are validated against a whitelist pattern
// to prevent SQL injection via identifier interpolation.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	if !validIdentifier.MatchString(assertion.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.Query(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	// Multiple matching rows would make the assertion ambiguous.
	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]any)
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	keys := sortedKeys(assertion.Expect)
	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}
		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildWhereClause constructs a parameterized WHERE clause. Keys are
// sorted for determinism.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}
	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML-decoded value to a SQL argument.
func toSQLValue(v any) any {
	switch val := v.(type) {
	case string, int, int64, float64, bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// stateValuesEqual compares a YAML-decoded expected value with a value
// scanned from SQLite, which returns int64, float64, string or []byte.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		s, ok := actual.(string)
		return ok && exp == s
	case int:
		return numericEqual(float64(exp), actual)
	case int64:
		return numericEqual(float64(exp), actual)
	case float64:
		return numericEqual(exp, actual)
	case bool:
		// SQLite stores booleans as integers.
		if n, ok := actual.(int64); ok {
			return exp == (n != 0)
		}
		b, ok := actual.(bool)
		return ok && exp == b
	}
	return reflect.DeepEqual(expected, actual)
}

func numericEqual(want float64, actual any) bool {
	switch a := actual.(type) {
	case int64:
		return want == float64(a)
	case float64:
		return math.Abs(want-a) <= outTolerance
	case int:
		return want == float64(a)
	}
	return false
}

// AssertionContext provides the state assertions are evaluated against.
type AssertionContext struct {
	Store   *store.Store
	Ctx     context.Context
	Engine  *engine.Scripted
	Session *bridge.Session
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEngineCall:
			err = assertEngineCall(result.Trace, assertion)
		case AssertCallOrder:
			err = assertCallOrder(result.Trace, assertion)
		case AssertCallCount:
			err = assertCallCount(result.Trace, assertion)
		case AssertSessionState:
			if actx == nil || actx.Session == nil {
				err = fmt.Errorf("assertion[%d]: session_state requires a session", i)
			} else {
				err = assertSessionState(actx.Session, assertion)
			}
		case AssertEngineValue:
			if actx == nil || actx.Engine == nil {
				err = fmt.Errorf("assertion[%d]: engine_value requires an engine", i)
			} else {
				err = assertEngineValue(actx.Engine, assertion)
			}
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
