package editconfig

import "fmt"

// Snapshot is a frozen edit configuration.
//
// Its fields are unexported and never written after construction, so a Snapshot
// can be copied, passed by value into an editing session and read concurrently.
// Label colors are stored normalized (see NormalizeColor).
type Snapshot struct {
	taxoID       int64
	instrumentID string
	labels       map[string]string
	labelNames   []string
	segments     map[string]struct{}
	segmentNames []string
	views        map[string]struct{}
	viewNames    []string
	simplified   bool
}

// Snapshot freezes the configuration. It fails when a label color does not parse.
func (c *Config) Snapshot() (Snapshot, error) {
	s := Snapshot{
		taxoID:       c.TaxoID,
		instrumentID: c.InstrumentID,
		labels:       make(map[string]string, len(c.Labels)),
		segments:     make(map[string]struct{}, len(c.Segments)),
		views:        make(map[string]struct{}, len(c.Views)),
		simplified:   c.Simplified,
	}
	for name, color := range c.Labels {
		norm, err := NormalizeColor(color)
		if err != nil {
			return Snapshot{}, fmt.Errorf("label %q: %w", name, err)
		}
		s.labels[name] = norm
	}
	s.labelNames = sortedKeys(s.labels)

	for _, seg := range c.Segments {
		if _, dup := s.segments[seg]; !dup {
			s.segmentNames = append(s.segmentNames, seg)
		}
		s.segments[seg] = struct{}{}
	}
	for _, view := range c.Views {
		if _, dup := s.views[view]; !dup {
			s.viewNames = append(s.viewNames, view)
		}
		s.views[view] = struct{}{}
	}
	return s, nil
}

// TaxoID returns the taxon the configuration applies to.
func (s Snapshot) TaxoID() int64 { return s.taxoID }

// InstrumentID returns the imaging instrument the configuration applies to.
func (s Snapshot) InstrumentID() string { return s.instrumentID }

// Simplified reports whether drawings are disabled.
func (s Snapshot) Simplified() bool { return s.simplified }

// IsZero reports whether s was never built from a Config.
func (s Snapshot) IsZero() bool { return s.labels == nil }

// LabelColor returns the normalized color of a label.
func (s Snapshot) LabelColor(name string) (string, bool) {
	color, ok := s.labels[name]
	return color, ok
}

// HasSegment reports whether name is an allowed segment.
func (s Snapshot) HasSegment(name string) bool {
	_, ok := s.segments[name]
	return ok
}

// AllowsView reports whether a view name may be used. An empty view list allows any name.
func (s Snapshot) AllowsView(name string) bool {
	if len(s.views) == 0 {
		return true
	}
	_, ok := s.views[name]
	return ok
}

// LabelNames returns the label names in sorted order.
func (s Snapshot) LabelNames() []string {
	return append([]string(nil), s.labelNames...)
}

// SegmentNames returns the segment names in configuration order.
func (s Snapshot) SegmentNames() []string {
	return append([]string(nil), s.segmentNames...)
}

// ViewNames returns the allowed view names in configuration order.
func (s Snapshot) ViewNames() []string {
	return append([]string(nil), s.viewNames...)
}

// Config returns a mutable copy of the snapshot, with normalized colors.
func (s Snapshot) Config() *Config {
	labels := make(map[string]string, len(s.labels))
	for name, color := range s.labels {
		labels[name] = color
	}
	return &Config{
		TaxoID:       s.taxoID,
		InstrumentID: s.instrumentID,
		Labels:       labels,
		Segments:     s.SegmentNames(),
		Views:        s.ViewNames(),
		Simplified:   s.simplified,
	}
}

// ParseSnapshot parses configuration bytes straight into a Snapshot.
func ParseSnapshot(data []byte) (Snapshot, error) {
	cfg, err := Parse(data)
	if err != nil {
		return Snapshot{}, err
	}
	return cfg.Snapshot()
}

// LoadSnapshot reads a configuration file into a Snapshot.
func LoadSnapshot(path string) (Snapshot, error) {
	cfg, err := Load(path)
	if err != nil {
		return Snapshot{}, err
	}
	return cfg.Snapshot()
}
