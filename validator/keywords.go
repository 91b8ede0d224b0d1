package validator

import (
	"unicode/utf8"

	"github.com/reoring/jsonvalidator/patch"
	"github.com/reoring/jsonvalidator/schema"
	"github.com/reoring/jsonvalidator/value"
)

func typeOf(v value.Value) schema.Type {
	switch v.Kind() {
	case value.KindNull:
		return schema.TypeNull
	case value.KindBool:
		return schema.TypeBoolean
	case value.KindNumber:
		if v.Number().IsInteger() {
			return schema.TypeNumber | schema.TypeInteger
		}
		return schema.TypeNumber
	case value.KindString:
		return schema.TypeString
	case value.KindArray:
		return schema.TypeArray
	default:
		return schema.TypeObject
	}
}

func (s *state) checkType(n *schema.Node, inst value.Value, ptr value.Pointer) {
	if n.Types == 0 || n.Types&typeOf(inst) != 0 {
		return
	}
	s.report(ptr, CodeInvalidType, map[string]any{"got": inst.Kind().String(), "expected": n.Types.String()})
}

func (s *state) checkEnum(n *schema.Node, inst value.Value, ptr value.Pointer) {
	if s.stopped {
		return
	}
	if n.HasEnum {
		found := false
		for _, e := range n.Enum {
			if value.Equal(e, inst) {
				found = true
				break
			}
		}
		if !found {
			s.report(ptr, CodeInvalidEnum, nil)
		}
	}
	if n.HasConst && !s.stopped && !value.Equal(n.Const, inst) {
		s.report(ptr, CodeConst, map[string]any{"const": n.Const.String()})
	}
}

func (s *state) checkNumber(n *schema.Node, x value.Number, ptr value.Pointer) {
	checks := []struct {
		limit value.Number
		fails func(c int) bool
		code  string
	}{
		{n.Maximum, func(c int) bool { return c > 0 }, CodeMaximum},
		{n.ExclusiveMaximum, func(c int) bool { return c >= 0 }, CodeExclusiveMaximum},
		{n.Minimum, func(c int) bool { return c < 0 }, CodeMinimum},
		{n.ExclusiveMinimum, func(c int) bool { return c <= 0 }, CodeExclusiveMinimum},
	}
	for _, c := range checks {
		if s.stopped {
			return
		}
		if c.limit != "" && c.fails(value.Compare(x, c.limit)) {
			s.report(ptr, c.code, map[string]any{"limit": string(c.limit)})
		}
	}
	if n.MultipleOf != "" && !s.stopped && !x.MultipleOf(n.MultipleOf) {
		s.report(ptr, CodeMultipleOf, map[string]any{"multipleOf": string(n.MultipleOf)})
	}
}

func (s *state) checkString(n *schema.Node, str string, ptr value.Pointer) {
	if s.stopped {
		return
	}
	if n.MaxLength >= 0 || n.MinLength >= 0 {
		length := utf8.RuneCountInString(str)
		if n.MaxLength >= 0 && length > n.MaxLength {
			s.report(ptr, CodeTooLong, map[string]any{"limit": n.MaxLength, "length": length})
		}
		if n.MinLength >= 0 && length < n.MinLength && !s.stopped {
			s.report(ptr, CodeTooShort, map[string]any{"limit": n.MinLength, "length": length})
		}
	}
	if n.Pattern != nil && !s.stopped && !n.Pattern.MatchString(str) {
		s.report(ptr, CodePattern, map[string]any{"pattern": n.Pattern.String()})
	}
}

func (s *state) checkArray(n *schema.Node, arr value.Value, ptr value.Pointer) {
	size := arr.Len()
	if n.MaxItems >= 0 && size > n.MaxItems {
		s.report(ptr, CodeTooManyItems, map[string]any{"limit": n.MaxItems})
	}
	if n.MinItems >= 0 && size < n.MinItems && !s.stopped {
		s.report(ptr, CodeTooFewItems, map[string]any{"limit": n.MinItems})
	}
	if n.UniqueItems && !s.stopped {
		s.checkUnique(arr, ptr)
	}

	switch {
	case n.ItemsList != nil:
		for i, it := range arr.Items() {
			if s.stopped {
				return
			}
			if i < len(n.ItemsList) {
				s.validate(n.ItemsList[i], it, ptr.Index(i))
				continue
			}
			s.validateAdditionalItem(n.AdditionalItems, it, ptr, i)
		}
		// Positional defaults fill the contiguous run of missing positions
		// right after the last element.
		for i := size; i < len(n.ItemsList) && !s.stopped; i++ {
			if !s.addDefault(n.ItemsList[i], ptr.Index(i)) {
				break
			}
		}
	case n.Items.Valid():
		for i, it := range arr.Items() {
			if s.stopped {
				return
			}
			s.validate(n.Items, it, ptr.Index(i))
		}
	}

	if n.Contains.Valid() && !s.stopped {
		found := false
		for i, it := range arr.Items() {
			if ok, _ := s.try(n.Contains, it, ptr.Index(i)); ok {
				found = true
				break
			}
		}
		if !found {
			s.report(ptr, CodeContains, nil)
		}
	}
}

func (s *state) validateAdditionalItem(ref schema.Ref, it value.Value, ptr value.Pointer, i int) {
	if !ref.Valid() {
		return
	}
	if s.root.Node(ref).Never {
		s.report(ptr, CodeAdditionalItems, map[string]any{"index": i})
		return
	}
	s.validate(ref, it, ptr.Index(i))
}

func (s *state) checkUnique(arr value.Value, ptr value.Pointer) {
	items := make([]value.Value, 0, arr.Len())
	for _, it := range arr.Items() {
		items = append(items, it)
	}
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if value.Equal(items[i], items[j]) {
				s.report(ptr, CodeUniqueItems, map[string]any{"first": i, "second": j})
				return
			}
		}
	}
}

func (s *state) checkObject(n *schema.Node, obj value.Value, ptr value.Pointer) {
	size := obj.Len()
	if n.MaxProperties >= 0 && size > n.MaxProperties {
		s.report(ptr, CodeTooManyProperties, map[string]any{"limit": n.MaxProperties})
	}
	if n.MinProperties >= 0 && size < n.MinProperties && !s.stopped {
		s.report(ptr, CodeTooFewProperties, map[string]any{"limit": n.MinProperties})
	}
	for _, name := range n.Required {
		if s.stopped {
			return
		}
		if !obj.Has(name) {
			s.report(ptr, CodeRequired, map[string]any{"property": name})
		}
	}

	for _, p := range n.Properties {
		if s.stopped {
			return
		}
		if m, ok := obj.Get(p.Name); ok {
			s.validate(p.Schema, m, ptr.Key(p.Name))
			continue
		}
		s.addDefault(p.Schema, ptr.Key(p.Name))
	}

	for name, m := range obj.Members() {
		if s.stopped {
			return
		}
		_, named := n.Property(name)
		matched := false
		for _, pp := range n.PatternProperties {
			if pp.Pattern.MatchString(name) {
				matched = true
				s.validate(pp.Schema, m, ptr.Key(name))
			}
		}
		if named || matched || !n.AdditionalProperties.Valid() {
			continue
		}
		if s.root.Node(n.AdditionalProperties).Never {
			s.report(ptr, CodeAdditionalProperty, map[string]any{"property": name})
			continue
		}
		s.validate(n.AdditionalProperties, m, ptr.Key(name))
	}

	for _, d := range n.Dependencies {
		if s.stopped {
			return
		}
		if !obj.Has(d.Name) {
			continue
		}
		for _, req := range d.Required {
			if !obj.Has(req) && !s.stopped {
				s.report(ptr, CodeDependency, map[string]any{"property": req, "dependent": d.Name})
			}
		}
		s.validate(d.Schema, obj, ptr)
	}

	if n.PropertyNames.Valid() {
		for name := range obj.Members() {
			if s.stopped {
				return
			}
			if !s.tryName(n.PropertyNames, name, ptr) {
				s.report(ptr, CodePropertyName, map[string]any{"property": name})
			}
		}
	}
}

func (s *state) checkCombinators(n *schema.Node, inst value.Value, ptr value.Pointer) {
	for _, ref := range n.AllOf {
		s.validate(ref, inst, ptr)
	}

	if len(n.AnyOf) > 0 && !s.stopped {
		// Every branch is evaluated; the first passing branch's edits win.
		passed := false
		for _, ref := range n.AnyOf {
			ok, edits := s.try(ref, inst, ptr)
			if ok && !passed {
				passed = true
				s.edits = append(s.edits, edits...)
			}
		}
		if !passed {
			s.report(ptr, CodeAnyOf, nil)
		}
	}

	if len(n.OneOf) > 0 && !s.stopped {
		count := 0
		var first patch.Patch
		for _, ref := range n.OneOf {
			if ok, edits := s.try(ref, inst, ptr); ok {
				if count == 0 {
					first = edits
				}
				count++
			}
		}
		if count != 1 {
			s.report(ptr, CodeOneOf, map[string]any{"count": count})
		} else {
			s.edits = append(s.edits, first...)
		}
	}

	if n.Not.Valid() && !s.stopped {
		if ok, _ := s.try(n.Not, inst, ptr); ok {
			s.report(ptr, CodeNot, nil)
		}
	}
}

func (s *state) checkConditional(n *schema.Node, inst value.Value, ptr value.Pointer) {
	if !n.If.Valid() || s.stopped {
		return
	}
	if ok, _ := s.try(n.If, inst, ptr); ok {
		s.validate(n.Then, inst, ptr)
		return
	}
	s.validate(n.Else, inst, ptr)
}
