// Package renamer walks model and diagram documents and rewrites every
// renamable identifier through a shared naming.Mapper, so each reference to a
// renamed type resolves to the same final name in every region and file.
package renamer

import (
	"fmt"
	"log/slog"

	"github.com/beevik/etree"

	"efrenamer/internal/edmx"
	"efrenamer/internal/naming"
	"efrenamer/internal/selection"
)

// Section identifies the kind of element a rename applies to.
type Section string

const (
	SectionEntitySet         Section = "entity_set"
	SectionEntityType        Section = "entity_type"
	SectionProperty          Section = "property"
	SectionEntitySetMapping  Section = "entity_set_mapping"
	SectionEntityTypeMapping Section = "entity_type_mapping"
	SectionScalarProperty    Section = "scalar_property"
	SectionDiagramShape      Section = "diagram_shape"
)

// Observer is notified for every visited element.
type Observer interface {
	ObserveElement(section Section, renamed bool)
}

// Stats counts renamed and skipped elements per section for one run.
type Stats struct {
	Renamed map[Section]int
	Skipped map[Section]int
}

func newStats() Stats {
	return Stats{
		Renamed: make(map[Section]int),
		Skipped: make(map[Section]int),
	}
}

// TotalRenamed sums renamed elements across sections.
func (s Stats) TotalRenamed() int {
	total := 0
	for _, n := range s.Renamed {
		total += n
	}
	return total
}

// Options tune a Walker.
type Options struct {
	// StrictNamespace fails on type references outside the model namespace
	// instead of cutting the namespace prefix by length.
	StrictNamespace bool
	Observer        Observer
	Logger          *slog.Logger
}

// Walker applies selection and naming to model documents. A Walker is meant
// for one run and is not safe for concurrent use.
type Walker struct {
	mapper     *naming.Mapper
	filter     *selection.Filter
	strict     bool
	observer   Observer
	logger     *slog.Logger
	stats      Stats
	collisions *naming.CollisionDetector
}

// New creates a Walker.
func New(mapper *naming.Mapper, filter *selection.Filter, opts Options) *Walker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{
		mapper:     mapper,
		filter:     filter,
		strict:     opts.StrictNamespace,
		observer:   opts.Observer,
		logger:     logger,
		stats:      newStats(),
		collisions: naming.NewCollisionDetector(logger),
	}
}

// Stats returns the counters accumulated so far.
func (w *Walker) Stats() Stats {
	return w.stats
}

// Collisions returns the distinct raw names that ended up with the same
// final name. Unselected names take part with their unchanged name.
func (w *Walker) Collisions() []naming.Collision {
	return w.collisions.Collisions()
}

// RenameModel rewrites the conceptual schema and then the mappings region.
// Entity sets are visited first so the type names they reference seed the
// cache before entity types and mappings are renamed.
func (w *Walker) RenameModel(model *edmx.Model) error {
	if err := w.renameEntitySets(model); err != nil {
		return err
	}
	if err := w.renameEntityTypes(model); err != nil {
		return err
	}
	return w.renameMappings(model)
}

func (w *Walker) renameEntitySets(model *edmx.Model) error {
	ns := model.Namespace()
	for _, container := range edmx.Children(model.Schema(), edmx.EdmNamespace, "EntityContainer") {
		for _, set := range edmx.Children(container, edmx.EdmNamespace, "EntitySet") {
			name, err := edmx.RequireAttr(set, "Name")
			if err != nil {
				return err
			}
			raw := name.Value
			if !w.filter.IsSelected(raw) {
				w.collisions.Register(string(SectionEntitySet), raw, raw)
				w.observe(SectionEntitySet, false)
				continue
			}
			name.Value = w.mapper.Plural(raw)
			w.collisions.Register(string(SectionEntitySet), name.Value, raw)

			if err := w.renameTypeReference(set, "EntityType", ns); err != nil {
				return err
			}
			w.observe(SectionEntitySet, true)
		}
	}
	return nil
}

func (w *Walker) renameEntityTypes(model *edmx.Model) error {
	for _, entityType := range edmx.Children(model.Schema(), edmx.EdmNamespace, "EntityType") {
		name, err := edmx.RequireAttr(entityType, "Name")
		if err != nil {
			return err
		}
		raw := name.Value
		if !w.filter.IsSelected(raw) {
			w.collisions.Register(string(SectionEntityType), raw, raw)
			w.observe(SectionEntityType, false)
			continue
		}
		name.Value = w.mapper.ResolveClass(raw)
		w.collisions.Register(string(SectionEntityType), name.Value, raw)
		w.observe(SectionEntityType, true)

		if key := edmx.Child(entityType, edmx.EdmNamespace, "Key"); key != nil {
			for _, ref := range edmx.Children(key, edmx.EdmNamespace, "PropertyRef") {
				if err := w.renameMember(ref, SectionProperty); err != nil {
					return err
				}
			}
		}
		scope := string(SectionProperty) + ":" + name.Value
		for _, prop := range edmx.Children(entityType, edmx.EdmNamespace, "Property") {
			raw := prop.SelectAttrValue("Name", "")
			if err := w.renameMember(prop, SectionProperty); err != nil {
				return err
			}
			w.collisions.Register(scope, prop.SelectAttrValue("Name", ""), raw)
		}
	}
	return nil
}

func (w *Walker) renameMappings(model *edmx.Model) error {
	ns := model.Namespace()
	for _, mapping := range edmx.Children(model.Mappings(), edmx.MappingNamespace, "Mapping") {
		for _, containerMapping := range edmx.Children(mapping, edmx.MappingNamespace, "EntityContainerMapping") {
			for _, setMapping := range edmx.Children(containerMapping, edmx.MappingNamespace, "EntitySetMapping") {
				if err := w.renameSetMapping(setMapping, ns); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// renameSetMapping renames one entity set mapping. Its type mappings inherit
// the set mapping's selection; their type names are not filtered again.
func (w *Walker) renameSetMapping(setMapping *etree.Element, ns string) error {
	name, err := edmx.RequireAttr(setMapping, "Name")
	if err != nil {
		return err
	}
	if !w.filter.IsSelected(name.Value) {
		w.observe(SectionEntitySetMapping, false)
		return nil
	}
	name.Value = w.mapper.Plural(name.Value)
	w.observe(SectionEntitySetMapping, true)

	for _, typeMapping := range edmx.Children(setMapping, edmx.MappingNamespace, "EntityTypeMapping") {
		if err := w.renameTypeReference(typeMapping, "TypeName", ns); err != nil {
			return err
		}
		w.observe(SectionEntityTypeMapping, true)

		fragment, err := edmx.RequireChild(typeMapping, edmx.MappingNamespace, "MappingFragment")
		if err != nil {
			return err
		}
		for _, scalar := range edmx.Children(fragment, edmx.MappingNamespace, "ScalarProperty") {
			if err := w.renameMember(scalar, SectionScalarProperty); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenameDiagram rewrites the entity type references of every diagram shape
// whose local type name is selected. namespace is the model's namespace.
func (w *Walker) RenameDiagram(diagram *edmx.Diagram, namespace string) error {
	dns := diagram.Namespace()
	for _, d := range edmx.Children(diagram.Diagrams(), dns, "Diagram") {
		for _, shape := range edmx.Children(d, dns, "EntityTypeShape") {
			ref, err := edmx.RequireAttr(shape, "EntityType")
			if err != nil {
				return err
			}
			local, err := edmx.LocalName(namespace, ref.Value, w.strict)
			if err != nil {
				return fmt.Errorf("diagram shape %s: %w", shape.GetPath(), err)
			}
			if !w.filter.IsSelected(local) {
				w.observe(SectionDiagramShape, false)
				continue
			}
			ref.Value = edmx.Qualify(namespace, w.mapper.ResolveClass(local))
			w.observe(SectionDiagramShape, true)
		}
	}
	return nil
}

// renameTypeReference re-qualifies the namespace-qualified type name in attr.
func (w *Walker) renameTypeReference(el *etree.Element, attr, ns string) error {
	ref, err := edmx.RequireAttr(el, attr)
	if err != nil {
		return err
	}
	local, err := edmx.LocalName(ns, ref.Value, w.strict)
	if err != nil {
		return fmt.Errorf("%s/@%s: %w", el.GetPath(), attr, err)
	}
	ref.Value = edmx.Qualify(ns, w.mapper.ResolveClass(local))
	return nil
}

func (w *Walker) renameMember(el *etree.Element, section Section) error {
	name, err := edmx.RequireAttr(el, "Name")
	if err != nil {
		return err
	}
	name.Value = w.mapper.ResolveMember(name.Value)
	w.observe(section, true)
	return nil
}

func (w *Walker) observe(section Section, renamed bool) {
	if renamed {
		w.stats.Renamed[section]++
	} else {
		w.stats.Skipped[section]++
		w.logger.Debug("element not selected, skipped", slog.String("section", string(section)))
	}
	if w.observer != nil {
		w.observer.ObserveElement(section, renamed)
	}
}
