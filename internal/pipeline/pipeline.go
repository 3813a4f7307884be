// Package pipeline loads HCL pipeline documents and assembles the stage
// graph they describe through the factory.
//
// A document is a sequence of reader, filter, and writer blocks. Block
// labels name stages for the inputs attribute; every other attribute
// becomes a stage option. The driver attribute may be omitted for readers
// and writers carrying a filename, in which case it is inferred from the
// filename.
package pipeline

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"

	"github.com/vk/pointpipe/internal/ctxlog"
	"github.com/vk/pointpipe/internal/factory"
	"github.com/vk/pointpipe/internal/stage"
)

type document struct {
	Readers []block `hcl:"reader,block"`
	Filters []block `hcl:"filter,block"`
	Writers []block `hcl:"writer,block"`
}

type block struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// Load parses the HCL document at path and builds its stage graph,
// returning the terminal stage. Exactly one stage must be left unconsumed
// by any inputs attribute.
func Load(ctx context.Context, f *factory.Factory, path string) (stage.Stage, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to parse pipeline file %s", path)
	}
	return build(ctx, f, file.Body, path)
}

// LoadBytes is Load over an in-memory document, for tests and callers that
// synthesize pipelines.
func LoadBytes(ctx context.Context, f *factory.Factory, src []byte, filename string) (stage.Stage, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to parse pipeline %s", filename)
	}
	return build(ctx, f, file.Body, filename)
}

func build(ctx context.Context, f *factory.Factory, body hcl.Body, path string) (stage.Stage, error) {
	logger := ctxlog.FromContext(ctx)

	var doc document
	if diags := gohcl.DecodeBody(body, nil, &doc); diags.HasErrors() {
		return nil, errors.Wrapf(diags, "invalid pipeline document %s", path)
	}

	stages := make(map[string]stage.Stage)
	inputsOf := make(map[string][]string)
	var order []string

	kinds := []struct {
		kind   stage.Kind
		blocks []block
	}{
		{stage.KindReader, doc.Readers},
		{stage.KindFilter, doc.Filters},
		{stage.KindWriter, doc.Writers},
	}
	for _, group := range kinds {
		for _, b := range group.blocks {
			if _, dup := stages[b.Name]; dup {
				return nil, errors.Errorf("duplicate stage name %q in %s", b.Name, path)
			}
			s, inputs, err := assemble(f, group.kind, b)
			if err != nil {
				return nil, errors.Wrapf(err, "pipeline %s", path)
			}
			if group.kind == stage.KindReader && len(inputs) > 0 {
				return nil, errors.Errorf("reader %q must not declare inputs", b.Name)
			}
			if group.kind != stage.KindReader && len(inputs) == 0 {
				return nil, errors.Errorf("%s %q declares no inputs", group.kind, b.Name)
			}
			stages[b.Name] = s
			inputsOf[b.Name] = inputs
			order = append(order, b.Name)
		}
	}
	if len(order) == 0 {
		return nil, errors.Errorf("pipeline %s defines no stages", path)
	}

	consumed := make(map[string]bool)
	for _, name := range order {
		s := stages[name]
		for _, inName := range inputsOf[name] {
			in, ok := stages[inName]
			if !ok {
				return nil, errors.Errorf("stage %q references unknown input %q", name, inName)
			}
			stage.Connect(s, in)
			consumed[inName] = true
		}
	}

	var terminal stage.Stage
	for _, name := range order {
		if consumed[name] {
			continue
		}
		if terminal != nil {
			return nil, errors.Errorf("pipeline %s has multiple terminal stages (%s and %s)", path, terminal.Name(), name)
		}
		terminal = stages[name]
	}
	if terminal == nil {
		return nil, errors.Errorf("pipeline %s has no terminal stage", path)
	}

	logger.Debug("pipeline assembled", "stages", len(order), "terminal", terminal.Name())
	return terminal, nil
}

// assemble creates one stage from its block: resolve (or infer) the
// driver, construct through the factory, and attach the remaining
// attributes as options. Writers additionally receive the option changes
// their destination filename implies, without clobbering explicit
// settings.
func assemble(f *factory.Factory, kind stage.Kind, b block) (stage.Stage, []string, error) {
	spec, err := decodeBlock(b)
	if err != nil {
		return nil, nil, err
	}

	driver := spec.driver
	if driver == "" {
		driver, err = inferDriver(f, kind, spec.filename())
		if err != nil {
			return nil, nil, errors.Wrapf(err, "stage %q", b.Name)
		}
	}

	s, err := f.Create(kind, driver)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "stage %q", b.Name)
	}
	stage.SetOptions(s, spec.opts)
	if kind == stage.KindWriter {
		if filename := spec.filename(); filename != "" {
			stage.AddConditionalOptions(s, f.InferWriterOptionsChanges(filename))
		}
	}
	return s, spec.inputs, nil
}

func inferDriver(f *factory.Factory, kind stage.Kind, filename string) (string, error) {
	if filename == "" {
		return "", errors.New("no driver and no filename to infer one from")
	}
	switch kind {
	case stage.KindReader:
		driver := f.InferReaderDriver(filename)
		if driver == "" {
			return "", errors.Errorf("cannot infer reader driver for %q", filename)
		}
		return driver, nil
	case stage.KindWriter:
		return f.InferWriterDriver(filename), nil
	default:
		return "", errors.New("filters have no driver inference; set driver explicitly")
	}
}
