package schema

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/agbkit/agbrom/errors"
)

// hclFile is the top-level structure of a schema file for decoding.
type hclFile struct {
	Structs   []*hclStruct   `hcl:"struct,block"`
	Bitfields []*hclBitfield `hcl:"bitfield,block"`
	Unions    []*hclUnion    `hcl:"union,block"`
	Arrays    []*hclArray    `hcl:"array,block"`
	Pointers  []*hclPointer  `hcl:"pointer,block"`
}

type hclStruct struct {
	Name   string      `hcl:"name,label"`
	Fields []*hclField `hcl:"field,block"`
}

type hclField struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type"`
}

type hclBitfield struct {
	Name      string         `hcl:"name,label"`
	Backing   string         `hcl:"backing"`
	Subfields []*hclSubfield `hcl:"sub,block"`
}

type hclSubfield struct {
	Name string `hcl:"name,label"`
	Bits uint32 `hcl:"bits"`
}

type hclUnion struct {
	Name         string           `hcl:"name,label"`
	Cases        []*hclCase       `hcl:"case,block"`
	Discriminant *hclDiscriminant `hcl:"discriminant,block"`
}

type hclCase struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type"`
}

type hclDiscriminant struct {
	Case      string     `hcl:"case,optional"`
	Field     []string   `hcl:"field,optional"`
	Threshold *cty.Value `hcl:"threshold,optional"`
	Below     string     `hcl:"below,optional"`
	AtOrAbove string     `hcl:"at_or_above,optional"`
}

type hclArray struct {
	Name        string   `hcl:"name,label"`
	Element     string   `hcl:"element"`
	Length      *int     `hcl:"length,optional"`
	LengthField []string `hcl:"length_field,optional"`
}

type hclPointer struct {
	Name    string `hcl:"name,label"`
	Target  string `hcl:"target,optional"`
	Label   string `hcl:"label"`
	Align   uint32 `hcl:"align,optional"`
	Global  bool   `hcl:"global,optional"`
	Indexed bool   `hcl:"indexed,optional"`
}

// LoadFile parses one HCL schema file and registers its definitions.
func LoadFile(reg *Registry, path string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, diags, "parse schema file "+path)
	}
	return decodeFile(reg, path, file.Body)
}

// LoadBytes parses HCL schema source and registers its definitions. The
// filename is used for diagnostics only.
func LoadBytes(reg *Registry, filename string, src []byte) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, diags, "parse schema source "+filename)
	}
	return decodeFile(reg, filename, file.Body)
}

// LoadDir registers every *.hcl file in dir, in lexical order.
func LoadDir(reg *Registry, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "read schema directory "+dir)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".hcl" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	for _, f := range files {
		if err := LoadFile(reg, f); err != nil {
			return err
		}
	}
	return nil
}

func decodeFile(reg *Registry, filename string, body hcl.Body) error {
	var parsed hclFile
	if diags := gohcl.DecodeBody(body, nil, &parsed); diags.HasErrors() {
		return errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, diags, "decode schema file "+filename)
	}

	for _, b := range parsed.Structs {
		fields := make([]Field, 0, len(b.Fields))
		for _, f := range b.Fields {
			fields = append(fields, Field{Name: f.Name, Type: f.Type})
		}
		if err := reg.Define(b.Name, Struct(fields...)); err != nil {
			return err
		}
	}

	for _, b := range parsed.Bitfields {
		subs := make([]Subfield, 0, len(b.Subfields))
		for _, s := range b.Subfields {
			subs = append(subs, Subfield{Name: s.Name, Bits: s.Bits})
		}
		if err := reg.Define(b.Name, Bitfield(b.Backing, subs...)); err != nil {
			return err
		}
	}

	for _, b := range parsed.Unions {
		disc, err := decodeDiscriminant(b)
		if err != nil {
			return err
		}
		cases := make([]Case, 0, len(b.Cases))
		for _, c := range b.Cases {
			cases = append(cases, Case{Name: c.Name, Type: c.Type})
		}
		if err := reg.Define(b.Name, Union(disc, cases...)); err != nil {
			return err
		}
	}

	for _, b := range parsed.Arrays {
		var length Length
		switch {
		case b.Length != nil && len(b.LengthField) > 0:
			return errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Type(b.Name).
				Detail("array declares both length and length_field").
				Build()
		case b.Length != nil:
			length = FixedLength(*b.Length)
		case len(b.LengthField) > 0:
			length = FieldPathLength(b.LengthField...)
		default:
			return errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Type(b.Name).
				Detail("array declares neither length nor length_field").
				Build()
		}
		if err := reg.Define(b.Name, Array(b.Element, length)); err != nil {
			return err
		}
	}

	for _, b := range parsed.Pointers {
		policy := FixedLabel(b.Label, b.Align, b.Global)
		if b.Indexed {
			policy = IndexedLabel(b.Label, b.Align, b.Global)
		}
		if err := reg.Define(b.Name, Pointer(b.Target, policy)); err != nil {
			return err
		}
	}

	return nil
}

func decodeDiscriminant(b *hclUnion) (Discriminant, error) {
	if b.Discriminant == nil {
		return Discriminant{}, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Type(b.Name).
			Detail("union has no discriminant block").
			Build()
	}
	d := b.Discriminant

	if d.Case != "" {
		return ConstantCase(d.Case), nil
	}

	if len(d.Field) == 0 || d.Threshold == nil {
		return Discriminant{}, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Type(b.Name).
			Detail("discriminant needs either case, or field with threshold").
			Build()
	}

	var threshold int64
	if err := gocty.FromCtyValue(*d.Threshold, &threshold); err != nil {
		return Discriminant{}, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Type(b.Name).
			Cause(err).
			Detail("discriminant threshold is not an integer").
			Build()
	}

	return ThresholdCase(d.Field, threshold, d.Below, d.AtOrAbove), nil
}
