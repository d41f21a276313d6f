// Package edmx gives structured access to the regions of an entity data model
// file (conceptual schema and conceptual-to-storage mappings) and of its
// companion designer diagram file.
package edmx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Namespace URIs of the model regions handled.
const (
	EdmNamespace     = "http://schemas.microsoft.com/ado/2009/11/edm"
	MappingNamespace = "http://schemas.microsoft.com/ado/2009/11/mapping/cs"
)

// ErrNamespaceMismatch reports a qualified name outside the model namespace.
var ErrNamespaceMismatch = errors.New("qualified name is outside the model namespace")

// StructuralError reports a required element or attribute that is missing.
// It is fatal: the document is not modified or written.
type StructuralError struct {
	Path    string
	Element string
}

func (e *StructuralError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("missing %s", e.Element)
	}
	return fmt.Sprintf("missing %s under %s", e.Element, e.Path)
}

// Model is a parsed model document with its required regions located.
type Model struct {
	doc       *etree.Document
	schema    *etree.Element
	mappings  *etree.Element
	namespace string
}

// ParseModel parses a model document and locates the conceptual schema and
// the mappings region.
func ParseModel(data []byte) (*Model, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse model document: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, &StructuralError{Element: "root element"}
	}
	ns := root.NamespaceURI()

	runtime, err := RequireChild(root, ns, "Runtime")
	if err != nil {
		return nil, err
	}
	conceptual, err := RequireChild(runtime, ns, "ConceptualModels")
	if err != nil {
		return nil, err
	}
	schema, err := RequireChild(conceptual, EdmNamespace, "Schema")
	if err != nil {
		return nil, err
	}
	namespace, err := RequireAttr(schema, "Namespace")
	if err != nil {
		return nil, err
	}
	mappings, err := RequireChild(runtime, ns, "Mappings")
	if err != nil {
		return nil, err
	}

	return &Model{
		doc:       doc,
		schema:    schema,
		mappings:  mappings,
		namespace: namespace.Value,
	}, nil
}

// Namespace returns the conceptual schema namespace that qualifies type names.
func (m *Model) Namespace() string {
	return m.namespace
}

// Schema returns the conceptual schema element.
func (m *Model) Schema() *etree.Element {
	return m.schema
}

// Mappings returns the mappings region element.
func (m *Model) Mappings() *etree.Element {
	return m.mappings
}

// Bytes serializes the (possibly modified) document.
func (m *Model) Bytes() ([]byte, error) {
	return m.doc.WriteToBytes()
}

// Diagram is a parsed designer diagram document.
type Diagram struct {
	doc       *etree.Document
	diagrams  *etree.Element
	namespace string
}

// ParseDiagram parses a diagram document and locates its diagrams region.
func ParseDiagram(data []byte) (*Diagram, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse diagram document: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, &StructuralError{Element: "root element"}
	}
	ns := root.NamespaceURI()

	designer, err := RequireChild(root, ns, "Designer")
	if err != nil {
		return nil, err
	}
	diagrams, err := RequireChild(designer, ns, "Diagrams")
	if err != nil {
		return nil, err
	}

	return &Diagram{doc: doc, diagrams: diagrams, namespace: ns}, nil
}

// Diagrams returns the diagrams region element.
func (d *Diagram) Diagrams() *etree.Element {
	return d.diagrams
}

// Namespace returns the diagram document's XML namespace URI.
func (d *Diagram) Namespace() string {
	return d.namespace
}

// Bytes serializes the (possibly modified) document.
func (d *Diagram) Bytes() ([]byte, error) {
	return d.doc.WriteToBytes()
}

// Children returns the child elements of parent with the given namespace URI
// and local tag, in document order.
func Children(parent *etree.Element, space, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range parent.ChildElements() {
		if child.Tag == tag && child.NamespaceURI() == space {
			out = append(out, child)
		}
	}
	return out
}

// Child returns the first matching child element, or nil.
func Child(parent *etree.Element, space, tag string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == tag && child.NamespaceURI() == space {
			return child
		}
	}
	return nil
}

// RequireChild is Child, failing with a StructuralError when absent.
func RequireChild(parent *etree.Element, space, tag string) (*etree.Element, error) {
	if child := Child(parent, space, tag); child != nil {
		return child, nil
	}
	return nil, &StructuralError{Path: parent.GetPath(), Element: tag}
}

// RequireAttr returns the unprefixed attribute key of el, failing with a
// StructuralError when absent.
func RequireAttr(el *etree.Element, key string) (*etree.Attr, error) {
	if attr := el.SelectAttr(key); attr != nil {
		return attr, nil
	}
	return nil, &StructuralError{Path: el.GetPath(), Element: "@" + key}
}

// Qualify joins a namespace and a local name with a dot.
func Qualify(namespace, local string) string {
	return namespace + "." + local
}

// LocalName strips "namespace." from qualified. When strict, a qualified name
// that does not carry the prefix fails with ErrNamespaceMismatch; otherwise the
// prefix length is cut blindly and an over-short name yields "".
func LocalName(namespace, qualified string, strict bool) (string, error) {
	prefix := namespace + "."
	if strings.HasPrefix(qualified, prefix) {
		return qualified[len(prefix):], nil
	}
	if strict {
		return "", fmt.Errorf("%w: %q does not start with %q", ErrNamespaceMismatch, qualified, prefix)
	}
	if len(qualified) <= len(prefix) {
		return "", nil
	}
	return qualified[len(prefix):], nil
}
