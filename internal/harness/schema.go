package harness

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce     sync.Once
	manifestSchema cue.Value
	schemaErr      error
)

// compiledSchema compiles the embedded schema once and returns #Manifest.
func compiledSchema() (cue.Value, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile manifest schema: %w", err)
			return
		}
		manifestSchema = v.LookupPath(cue.ParsePath("#Manifest"))
		if !manifestSchema.Exists() {
			schemaErr = fmt.Errorf("manifest schema has no #Manifest definition")
		}
	})
	return manifestSchema, schemaErr
}

// validateSchema checks a generically decoded YAML document against #Manifest.
func validateSchema(doc any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	v := schema.Context().Encode(doc)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err := schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema: %s", cueerrors.Details(err, nil))
	}
	return nil
}
