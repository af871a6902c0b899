package scanner

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"mftfcheck/internal/registry"
)

// node is the mutable tree built while decoding one file.
type node struct {
	tag      string
	attrs    map[string]string
	text     strings.Builder
	children []*node
}

// ParseFile decodes one MFTF definition file. Every element directly under the
// document root becomes an entity whose kind is the element's tag and whose
// name is its name attribute. Entities without a name are returned in skipped.
func ParseFile(r io.Reader, source string) (entities []registry.Entity, skipped []string, err error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, nil, err
	}

	for _, child := range root.children {
		name := child.attrs["name"]
		if name == "" {
			skipped = append(skipped, child.tag)
			continue
		}
		attrs := make(map[string]string, len(child.attrs))
		for k, v := range child.attrs {
			if k != "name" {
				attrs[k] = v
			}
		}
		if len(attrs) == 0 {
			attrs = nil
		}
		entities = append(entities, registry.Entity{
			Name:            name,
			Kind:            child.tag,
			SourceLocations: []string{source},
			Attributes:      attrs,
			Children:        toElements(child.children),
		})
	}
	return entities, skipped, nil
}

func parseTree(r io.Reader) (*node, error) {
	decoder := xml.NewDecoder(r)

	var stack []*node
	var root *node

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("unexpected element %s after document end", t.Name.Local)
			}
			n := &node{tag: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				// Namespace declarations and schema hints are not structure.
				if a.Name.Space != "" || a.Name.Local == "xmlns" {
					continue
				}
				n.attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else {
				root = n
			}
			stack = append(stack, n)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return root, nil
}

func toElements(nodes []*node) []registry.Element {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]registry.Element, len(nodes))
	for i, n := range nodes {
		var attrs map[string]string
		if len(n.attrs) > 0 {
			attrs = n.attrs
		}
		out[i] = registry.Element{
			Tag:        n.tag,
			Attributes: attrs,
			Text:       strings.TrimSpace(n.text.String()),
			Children:   toElements(n.children),
		}
	}
	return out
}
