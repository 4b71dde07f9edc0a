package schema

import (
	"github.com/isographlabs/isograph-go/config"
	"github.com/isographlabs/isograph-go/internal/engine"
	"github.com/isographlabs/isograph-go/protocol/graphqlproto"
	"github.com/isographlabs/isograph-go/sourceregistry"
)

// newTestSchema wires a Schema over an in-memory registry: schemaJSON
// becomes the single schema document (parsed by graphqlproto.Protocol),
// and isoFiles maps relative paths to iso-literal source text.
func newTestSchema(schemaJSON string, isoFiles map[string]string) *Schema {
	e := engine.New()
	reg := sourceregistry.New(e, "/project")
	reg.SetConfig(config.Config{
		ProjectRoot: ".",
		Schema:      "schema.json",
		Options:     config.Options{OnInvalidIDType: config.OnInvalidIDError},
	})
	reg.SetFileContent("schema.json", schemaJSON)

	var paths []string
	for path, content := range isoFiles {
		reg.SetFileContent(path, content)
		paths = append(paths, path)
	}
	reg.SetIsoLiteralFileSet(paths)

	return New(reg, graphqlproto.Protocol{})
}
