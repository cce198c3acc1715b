package mapping

import (
	_ "embed"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error

	// A cue.Context is not safe for concurrent use.
	schemaMu sync.Mutex
)

func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = err
			return
		}
		schemaDef = v.LookupPath(cue.ParsePath("#Mapping"))
		schemaErr = schemaDef.Err()
	})
	return schemaCtx, schemaDef, schemaErr
}

// validateSchema unifies the document with #Mapping. The structural checks
// in Deserialize run first, so this catches value constraints only: empty
// names, negative numbers, a malformed fingerprint.
func validateSchema(data []byte) error {
	ctx, def, err := loadSchema()
	if err != nil {
		return &ParseError{Field: "schema", Message: "embedded schema: " + err.Error()}
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()

	doc := ctx.CompileBytes(data, cue.Filename("mapping.json"))
	if err := doc.Err(); err != nil {
		return &ParseError{Field: "schema", Message: errors.Details(err, nil)}
	}
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &ParseError{Field: "schema", Message: firstError(err)}
	}
	return nil
}

func firstError(err error) string {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	return errs[0].Error()
}
