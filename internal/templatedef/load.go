package templatedef

import (
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/cadence/internal/task"
)

// LoadBytes compiles CUE source and returns every template declared under
// the top-level "template" struct, sorted by ID. The filename is used only
// for error positions.
func LoadBytes(filename string, src []byte) ([]*task.Template, error) {
	ctx := cuecontext.New()
	root := ctx.CompileBytes(src, cue.Filename(filename))
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	templates := root.LookupPath(cue.ParsePath("template"))
	if !templates.Exists() {
		return nil, &CompileError{
			Field:   "template",
			Message: "no top-level template struct found",
			Pos:     root.Pos(),
		}
	}

	iter, err := templates.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []*task.Template
	for iter.Next() {
		tmpl, err := CompileTemplate(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", iter.Selector().Unquoted(), err)
		}
		out = append(out, tmpl)
	}
	if out == nil {
		out = []*task.Template{}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadFile reads and compiles a template definition file.
func LoadFile(path string) ([]*task.Template, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template file: %w", err)
	}
	return LoadBytes(path, src)
}
