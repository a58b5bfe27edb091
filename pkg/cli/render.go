package cli

import (
	"fmt"
	"io"

	layers "github.com/justincpresley/layerlist/pkg/layers"
	yaml "gopkg.in/yaml.v3"
)

// Render writes l as "<index> <key> <value>" lines, back to front, or as
// the YAML snapshot the store keeps.
func Render(w io.Writer, format, name string, l *layers.List[string]) error {
	entries := l.Entries()
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(layers.Snapshot[string]{Name: name, Entries: entries}); err != nil {
			return err
		}
		return enc.Close()
	}
	for i, e := range entries {
		if _, err := fmt.Fprintf(w, "%d %s %s\n", i, e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}
