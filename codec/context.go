package codec

import (
	"github.com/agbkit/agbrom/errors"
)

// Context is the stack of partially decoded ancestor values. The decoder
// pushes each struct before decoding its fields, so a length or discriminant
// strategy can only see fields decoded before the field being resolved.
// The encoder maintains the same convention.
type Context struct {
	frames []any
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{}
}

// Push adds a frame as the most recent ancestor.
func (c *Context) Push(v any) {
	c.frames = append(c.frames, v)
}

// Pop removes the most recent ancestor.
func (c *Context) Pop() {
	c.frames = c.frames[:len(c.frames)-1]
}

// Depth returns the number of frames.
func (c *Context) Depth() int {
	return len(c.frames)
}

// ResolveField walks path against the context. The first segment is looked
// up in the nearest ancestor frame that contains it; the remaining segments
// are plain field lookups from there. ResolveField has no side effects:
// identical contexts give identical results.
func (c *Context) ResolveField(path []string) (any, error) {
	if len(path) == 0 {
		return nil, errors.PathResolution(errors.PhaseResolve, path, "")
	}

	var current any
	found := false
	for i := len(c.frames) - 1; i >= 0; i-- {
		frame, ok := c.frames[i].(*Struct)
		if !ok {
			continue
		}
		if v, ok := frame.Get(path[0]); ok {
			current = v
			found = true
			break
		}
	}
	if !found {
		return nil, errors.PathResolution(errors.PhaseResolve, path, path[0])
	}

	for _, segment := range path[1:] {
		s, ok := current.(*Struct)
		if !ok {
			return nil, errors.PathResolution(errors.PhaseResolve, path, segment)
		}
		v, ok := s.Get(segment)
		if !ok {
			return nil, errors.PathResolution(errors.PhaseResolve, path, segment)
		}
		current = v
	}

	return current, nil
}
