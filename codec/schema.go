package codec

import (
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
	"github.com/wI2L/jsondiff"
)

var reflector = &jsonschema.Reflector{
	Anonymous:      true,
	ExpandedStruct: true,
}

// Schema reflects the JSON schema of v's type. Top-level fields are inlined, so two
// types of the same shape yield the same schema whatever their names.
func Schema(v any) ([]byte, error) {
	bz, err := reflector.Reflect(v).MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal schema")
	}
	return bz, nil
}

// SchemaDiff describes how schema b differs from schema a. An empty result means the
// schemas are equivalent.
func SchemaDiff(a, b []byte) (string, error) {
	patch, err := jsondiff.CompareJSON(a, b)
	if err != nil {
		return "", eris.Wrap(err, "failed to compare schemas")
	}
	return patch.String(), nil
}
