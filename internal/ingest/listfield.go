package ingest

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ListKind tells how a list-typed field arrived.
type ListKind int

const (
	// ListMissing means the key was absent or null.
	ListMissing ListKind = iota
	// ListExplicit means a JSON array (or a single object standing for one item).
	ListExplicit
	// ListLegacyEncoded means the list was sent as a JSON-encoded string.
	ListLegacyEncoded
)

func (k ListKind) String() string {
	switch k {
	case ListExplicit:
		return "explicit"
	case ListLegacyEncoded:
		return "legacy_encoded"
	default:
		return "missing"
	}
}

// ListField holds a list-typed value as received, before it is resolved.
type ListField struct {
	Kind ListKind
	raw  gjson.Result
}

// ListFieldOf classifies a raw JSON value.
func ListFieldOf(r gjson.Result) ListField {
	switch {
	case !r.Exists() || r.Type == gjson.Null:
		return ListField{Kind: ListMissing}
	case r.IsArray(), r.IsObject():
		return ListField{Kind: ListExplicit, raw: r}
	default:
		return ListField{Kind: ListLegacyEncoded, raw: r}
	}
}

// Explicit builds a ListField from a JSON array literal.
func Explicit(rawJSON string) ListField {
	return ListFieldOf(gjson.Parse(rawJSON))
}

// Encoded builds a ListField from a JSON-encoded string value.
func Encoded(s string) ListField {
	return ListField{Kind: ListLegacyEncoded, raw: gjson.Result{Type: gjson.String, Str: s}}
}

func (f *ListField) UnmarshalJSON(data []byte) error {
	*f = ListFieldOf(gjson.ParseBytes(data))
	return nil
}

// elements returns the list items and whether the field was present at all.
// A legacy string that does not decode yields no items but stays present.
func (f ListField) elements() ([]gjson.Result, bool) {
	switch f.Kind {
	case ListExplicit:
		if f.raw.IsArray() {
			return f.raw.Array(), true
		}
		return []gjson.Result{f.raw}, true
	case ListLegacyEncoded:
		s := strings.TrimSpace(f.raw.String())
		if !gjson.Valid(s) {
			return nil, true
		}
		decoded := gjson.Parse(s)
		switch {
		case decoded.IsArray():
			return decoded.Array(), true
		case decoded.IsObject():
			return []gjson.Result{decoded}, true
		}
		return nil, true
	default:
		return nil, false
	}
}

// List is a resolved list field. Present is false only when the field was
// missing, so an empty present list clears stored data.
type List[T any] struct {
	Items   []T
	Present bool
}

// Of returns a present list.
func Of[T any](items ...T) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{Items: items, Present: true}
}

// ResolveList decodes every item with decode, skipping items it rejects.
func ResolveList[T any](f ListField, decode func(gjson.Result) (T, bool)) List[T] {
	elems, present := f.elements()
	if !present {
		return List[T]{}
	}
	items := make([]T, 0, len(elems))
	for _, e := range elems {
		if item, ok := decode(e); ok {
			items = append(items, item)
		}
	}
	return List[T]{Items: items, Present: true}
}
