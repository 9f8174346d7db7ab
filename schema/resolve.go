package schema

// resolve verifies every Nested type reference in c against c's own data
// types, populating TypeRef.Nested. Forward references are allowed: a
// field may name a data type declared later in the same coda, since the
// whole Types slice is built before resolution runs.
func (c *Coda) resolve() error {
	for _, dt := range c.Types {
		for _, f := range dt.Fields {
			if err := c.resolveTypeRef(&f.Type, dt, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Coda) resolveTypeRef(t *TypeRef, dt *DataType, f *Field) error {
	switch t.Kind {
	case KindNested:
		target, ok := c.DataType(t.NestedName)
		if !ok {
			return newParseError(ErrUnresolvedTypeRef, f.Line,
				"field %q of %q references unknown data type %q", f.Name, dt.Name, t.NestedName)
		}
		t.Nested = target
		return nil
	case KindList, KindOptional:
		return c.resolveTypeRef(t.Elem, dt, f)
	case KindMap:
		if err := c.resolveTypeRef(t.Key, dt, f); err != nil {
			return err
		}
		return c.resolveTypeRef(t.Value, dt, f)
	default:
		return nil
	}
}
