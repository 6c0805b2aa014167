package schema

import (
	"sort"

	"github.com/agbkit/agbrom/errors"
)

// PointerWidth is the encoded size of every pointer type in bytes.
const PointerWidth uint32 = 4

// Registry holds named type definitions. It is populated during a one-time
// define phase; afterwards it is read-only and safe for unsynchronized
// concurrent reads. Names inside types are resolved lazily at first use, so
// registration order does not matter and forward references are fine.
type Registry struct {
	types map[string]*Type
}

// NewRegistry returns a registry pre-populated with the primitive scalars
// u8, s8, u16, s16, u32 and s32.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]*Type)}
	r.types["u8"] = Scalar(1, false)
	r.types["s8"] = Scalar(1, true)
	r.types["u16"] = Scalar(2, false)
	r.types["s16"] = Scalar(2, true)
	r.types["u32"] = Scalar(4, false)
	r.types["s32"] = Scalar(4, true)
	return r
}

// Define registers a named type. Redefinition fails, including of the
// primitive scalars.
func (r *Registry) Define(name string, t *Type) error {
	if _, ok := r.types[name]; ok {
		return errors.DuplicateName(name)
	}
	r.types[name] = t
	return nil
}

// Resolve returns the type registered under name.
func (r *Registry) Resolve(name string) (*Type, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, errors.UnknownType(errors.PhaseResolve, name)
	}
	return t, nil
}

// Names returns all registered type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate walks every registered type and reports the first structural
// fault: a dangling type name, a bitfield whose subfields exceed its backing
// scalar, or a threshold discriminant naming an undeclared case. Cycles in
// the type graph are legal and pass.
func (r *Registry) Validate() error {
	names := r.Names()
	for _, name := range names {
		if err := r.validateType(name, r.types[name]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) validateType(name string, t *Type) error {
	switch t.Kind {
	case KindScalar:
		switch t.Width {
		case 1, 2, 4:
			return nil
		}
		return errors.New(errors.PhaseDefine, errors.KindInvalidData).
			Type(name).
			Detail("scalar width %d is not 1, 2 or 4", t.Width).
			Build()

	case KindStruct:
		for _, f := range t.Fields {
			if _, ok := r.types[f.Type]; !ok {
				return errors.New(errors.PhaseDefine, errors.KindUnknownType).
					Type(name).
					Path(f.Name).
					Detail("field references undefined type %q", f.Type).
					Build()
			}
		}
		return nil

	case KindBitfield:
		backing, ok := r.types[t.Backing]
		if !ok {
			return errors.New(errors.PhaseDefine, errors.KindUnknownType).
				Type(name).
				Detail("backing references undefined type %q", t.Backing).
				Build()
		}
		if backing.Kind != KindScalar {
			return errors.New(errors.PhaseDefine, errors.KindInvalidData).
				Type(name).
				Detail("backing type %q is %s, not a scalar", t.Backing, backing.Kind).
				Build()
		}
		var total uint32
		for _, sub := range t.Subfields {
			total += sub.Bits
		}
		if total > backing.Width*8 {
			return errors.BitfieldOverflow(errors.PhaseDefine, name, total, backing.Width*8)
		}
		return nil

	case KindUnion:
		for _, c := range t.Cases {
			if _, ok := r.types[c.Type]; !ok {
				return errors.New(errors.PhaseDefine, errors.KindUnknownType).
					Type(name).
					Path(c.Name).
					Detail("case references undefined type %q", c.Type).
					Build()
			}
		}
		switch t.Discriminant.Kind {
		case DiscriminantConstant:
			if t.Case(t.Discriminant.Case) == nil {
				return errors.New(errors.PhaseDefine, errors.KindUnknownVariant).
					Type(name).
					Detail("constant discriminant names undeclared case %q", t.Discriminant.Case).
					Build()
			}
		case DiscriminantThreshold:
			for _, c := range []string{t.Discriminant.Below, t.Discriminant.AtOrAbove} {
				if t.Case(c) == nil {
					return errors.New(errors.PhaseDefine, errors.KindUnknownVariant).
						Type(name).
						Detail("threshold discriminant names undeclared case %q", c).
						Build()
				}
			}
		}
		return nil

	case KindArray:
		if _, ok := r.types[t.Elem]; !ok {
			return errors.New(errors.PhaseDefine, errors.KindUnknownType).
				Type(name).
				Detail("element references undefined type %q", t.Elem).
				Build()
		}
		return nil

	case KindPointer:
		if t.Target == "" {
			return nil // opaque
		}
		if _, ok := r.types[t.Target]; !ok {
			return errors.New(errors.PhaseDefine, errors.KindUnknownType).
				Type(name).
				Detail("target references undefined type %q", t.Target).
				Build()
		}
		return nil

	default:
		return errors.New(errors.PhaseDefine, errors.KindInvalidData).
			Type(name).
			Detail("unknown type kind %d", t.Kind).
			Build()
	}
}
