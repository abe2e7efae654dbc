package card

import "strings"

// Metadata and view attributes.
const (
	AttrTaxoID          = "data-taxoid"
	AttrInstrumentID    = "data-instrumentid"
	AttrViewName        = "data-view-name"
	AttrInstance        = "data-instance"
	AttrObjectID        = "data-object-id"
	AttrLabel           = "data-label"
	AttrConfusingTaxoID = "data-confusing-taxoid"
)

// Section and group classes.
const (
	ClassTemplates          = "svg-templates"
	ClassMorphoCriteria     = "morpho-criteria"
	ClassDescriptiveSchemas = "descriptive-schemas"
	ClassMoreExamples       = "more-examples"
	ClassPhotosAndFigures   = "photos-and-figures"
	ClassPossibleConfusions = "possible-confusions"
	ClassConfusion          = "confusion"
	ClassShapes             = "shapes"
	ClassZooms              = "zooms"
	ClassBackground         = "background"
)

// Template id suffixes. Arrow heads are defined once per label because a
// marker cannot inherit the stroke color of the shape using it.
const (
	MarkerSuffix  = "_triangle"
	SegmentSuffix = "_segment"
)

// MarkerID returns the template id of the arrow head for a label.
func MarkerID(label string) string {
	return label + MarkerSuffix
}

// SegmentSymbolID returns the template id of the drawing for a segment.
func SegmentSymbolID(segment string) string {
	return segment + SegmentSuffix
}

// LabelFromMarkerID extracts the label name from an arrow head id.
func LabelFromMarkerID(id string) (string, bool) {
	return trimNameSuffix(id, MarkerSuffix)
}

// SegmentFromSymbolID extracts the segment name from a segment symbol id.
func SegmentFromSymbolID(id string) (string, bool) {
	return trimNameSuffix(id, SegmentSuffix)
}

func trimNameSuffix(id, suffix string) (string, bool) {
	if !strings.HasSuffix(id, suffix) {
		return "", false
	}
	name := strings.TrimSuffix(id, suffix)
	if name == "" {
		return "", false
	}
	return name, true
}

// URLRef extracts the fragment id from a url(#id) reference, as used by markers.
func URLRef(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "url(") || !strings.HasSuffix(v, ")") {
		return "", false
	}
	inner := strings.TrimSpace(v[len("url(") : len(v)-1])
	inner = strings.Trim(inner, `"'`)
	return HrefRef(inner)
}

// HrefRef extracts the fragment id from a same-document #id reference.
func HrefRef(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "#") || len(v) == 1 {
		return "", false
	}
	return v[1:], true
}
