package metatypes

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/optrace/patching"
)

// patchSpecFile is the form of a patch spec in a metatype file.
type patchSpecFile struct {
	Functions   []string `yaml:"functions"`
	ForwardOnly bool     `yaml:"forward_only,omitempty"`
}

type metatypeFile struct {
	Name       string         `yaml:"name"`
	Functional *patchSpecFile `yaml:"functional,omitempty"`
	Module     *patchSpecFile `yaml:"module,omitempty"`
	Tensor     *patchSpecFile `yaml:"tensor,omitempty"`
}

type file struct {
	Metatypes []metatypeFile `yaml:"metatypes"`
}

// Load reads metatypes from YAML. The metatypes keep the order of the file.
//
//	metatypes:
//	  - name: relu
//	    functional:
//	      functions: [relu, relu_]
//	  - name: noop
//	    tensor:
//	      functions: [contiguous]
//	      forward_only: true
func Load(r io.Reader) (patching.MetatypeList, error) {
	var f file

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(&f)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding metatypes: %w", err)
	}

	list := make(patching.MetatypeList, 0, len(f.Metatypes))
	seen := make(map[string]bool)

	for i, m := range f.Metatypes {
		if m.Name == "" {
			return nil, fmt.Errorf("metatype %d has no name", i)
		}

		if seen[m.Name] {
			return nil, fmt.Errorf("metatype %s is defined twice", m.Name)
		}

		seen[m.Name] = true

		list = append(list, patching.OperatorMetatype{
			Name:                m.Name,
			FunctionalPatchSpec: m.Functional.toPatchSpec(),
			ModulePatchSpec:     m.Module.toPatchSpec(),
			TensorPatchSpec:     m.Tensor.toPatchSpec(),
		})
	}

	return list, nil
}

// LoadFile reads metatypes from a YAML file.
func LoadFile(path string) (patching.MetatypeList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

func (s *patchSpecFile) toPatchSpec() *patching.PatchSpec {
	if s == nil || len(s.Functions) == 0 {
		return nil
	}

	spec := &patching.PatchSpec{
		FunctionNames: append([]string(nil), s.Functions...),
	}

	if s.ForwardOnly {
		spec.CustomTrace = patching.ForwardTraceOnly{}
	}

	return spec
}

// Dump writes metatypes as YAML. Custom trace functions other than
// ForwardTraceOnly cannot be written and are dropped.
func Dump(w io.Writer, list []patching.OperatorMetatype) error {
	f := file{Metatypes: make([]metatypeFile, 0, len(list))}

	for _, m := range list {
		f.Metatypes = append(f.Metatypes, metatypeFile{
			Name:       m.Name,
			Functional: fromPatchSpec(m.FunctionalPatchSpec),
			Module:     fromPatchSpec(m.ModulePatchSpec),
			Tensor:     fromPatchSpec(m.TensorPatchSpec),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(f)
	if err != nil {
		return err
	}

	return enc.Close()
}

func fromPatchSpec(spec *patching.PatchSpec) *patchSpecFile {
	if spec == nil {
		return nil
	}

	_, forwardOnly := spec.CustomTrace.(patching.ForwardTraceOnly)

	return &patchSpecFile{
		Functions:   append([]string(nil), spec.FunctionNames...),
		ForwardOnly: forwardOnly,
	}
}
