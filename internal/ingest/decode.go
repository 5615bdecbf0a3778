package ingest

import (
	"bytes"
	"encoding/xml"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/ohler55/ojg/oj"
	"github.com/zclconf/go-cty/cty"

	"github.com/agentic-research/sitemap/api"
	"github.com/agentic-research/sitemap/internal/graph"
)

// childrenKey holds nested declarations in the JSON format.
const childrenKey = "nodes"

type decoder func(path string, data []byte) (*api.Element, error)

var decoders = map[string]decoder{
	".xml":     decodeXML,
	".sitemap": decodeXML,
	".json":    decodeJSON,
	".hcl":     decodeHCL,
}

// Decode parses a site map document, choosing the format by extension.
func Decode(path string, data []byte) (*api.Document, error) {
	dec, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, invalidf("%s: unsupported site map format %q", path, filepath.Ext(path))
	}
	root, err := dec(path, data)
	if err != nil {
		return nil, err
	}
	return &api.Document{Path: path, Root: root}, nil
}

func invalidf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), graph.ErrInvalidDeclaration)
}

// decodeXML matches elements by local name; namespace declarations and
// namespaced attributes are dropped.
func decodeXML(path string, data []byte) (*api.Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		root  *api.Element
		stack []*api.Element
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parse %s", path), graph.ErrInvalidDeclaration)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := dec.InputPos()
			el := &api.Element{Name: t.Name.Local, Line: line}
			for _, a := range t.Attr {
				if a.Name.Space != "" || a.Name.Local == "xmlns" {
					continue
				}
				el.Attrs = append(el.Attrs, api.Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return nil, invalidf("%s: empty document", path)
	}
	return root, nil
}

// decodeJSON reads {"<element>": {<attr>: <scalar>, ..., "nodes": [<element>...]}}.
func decodeJSON(path string, data []byte) (*api.Element, error) {
	v, err := oj.Parse(data)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parse %s", path), graph.ErrInvalidDeclaration)
	}
	return jsonElement(path, v)
}

func jsonElement(path string, v any) (*api.Element, error) {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) != 1 {
		return nil, invalidf("%s: element must be an object with exactly one member", path)
	}
	var name string
	var body any
	for name, body = range obj {
	}
	el := &api.Element{Name: name}
	if body == nil {
		return el, nil
	}
	members, ok := body.(map[string]any)
	if !ok {
		return nil, invalidf("%s: body of %q must be an object", path, name)
	}
	for _, k := range slices.Sorted(maps.Keys(members)) {
		mv := members[k]
		if k == childrenKey {
			list, ok := mv.([]any)
			if !ok {
				return nil, invalidf("%s: %q of %q must be an array", path, childrenKey, name)
			}
			for _, item := range list {
				child, err := jsonElement(path, item)
				if err != nil {
					return nil, err
				}
				el.Children = append(el.Children, child)
			}
			continue
		}
		s, err := jsonScalar(mv)
		if err != nil {
			return nil, invalidf("%s: attribute %q of %q: %v", path, k, name, err)
		}
		el.Attrs = append(el.Attrs, api.Attr{Name: k, Value: s})
	}
	return el, nil
}

func jsonScalar(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			s, err := jsonScalar(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", errors.Newf("unsupported value of type %T", v)
	}
}

// decodeHCL treats the file body as the root container; each block is an
// element named by its type. A single block label stands in for the key.
func decodeHCL(path string, data []byte) (*api.Element, error) {
	file, diags := hclsyntax.ParseConfig(data, path, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, errors.Mark(errors.Wrapf(diags, "parse %s", path), graph.ErrInvalidDeclaration)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, invalidf("%s: unexpected HCL body type %T", path, file.Body)
	}
	root := &api.Element{Name: api.RootElement, Line: 1}
	if err := hclBody(path, body, root); err != nil {
		return nil, err
	}
	return root, nil
}

func hclBody(path string, body *hclsyntax.Body, el *api.Element) error {
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		attrs = append(attrs, a)
	}
	slices.SortFunc(attrs, func(a, b *hclsyntax.Attribute) int {
		return a.SrcRange.Start.Byte - b.SrcRange.Start.Byte
	})
	for _, a := range attrs {
		v, diags := a.Expr.Value(nil)
		if diags.HasErrors() {
			return errors.Mark(errors.Wrapf(diags, "%s: attribute %q", path, a.Name), graph.ErrInvalidDeclaration)
		}
		s, err := ctyString(v)
		if err != nil {
			return invalidf("%s:%d: attribute %q: %v", path, a.SrcRange.Start.Line, a.Name, err)
		}
		el.Attrs = append(el.Attrs, api.Attr{Name: a.Name, Value: s})
	}
	for _, b := range body.Blocks {
		child := &api.Element{Name: b.Type, Line: b.TypeRange.Start.Line}
		if err := hclBody(path, b.Body, child); err != nil {
			return err
		}
		switch len(b.Labels) {
		case 0:
		case 1:
			if _, ok := child.Attr(api.AttrKey); !ok {
				child.Attrs = append(child.Attrs, api.Attr{Name: api.AttrKey, Value: b.Labels[0]})
			}
		default:
			return invalidf("%s:%d: block %q takes at most one label", path, child.Line, b.Type)
		}
		el.Children = append(el.Children, child)
	}
	return nil
}

func ctyString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	if !v.IsKnown() {
		return "", errors.New("value is not known")
	}
	t := v.Type()
	switch {
	case t.Equals(cty.String):
		return v.AsString(), nil
	case t.Equals(cty.Number):
		return v.AsBigFloat().Text('f', -1), nil
	case t.Equals(cty.Bool):
		return strconv.FormatBool(v.True()), nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		var parts []string
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			s, err := ctyString(ev)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	}
	return "", errors.Newf("unsupported value type %s", t.FriendlyName())
}
