package schemas

// -- DOM Snapshot Schemas --

// Element is a read-only snapshot of a DOM element taken at query time. It is
// never a live handle; re-query to observe later state.
type Element struct {
	Tag  string `json:"tag"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
	// Value is the form control value, empty for elements without one.
	Value string `json:"value,omitempty"`
	// Href is the resolved (absolute) link target for anchors.
	Href string `json:"href,omitempty"`
	// Display is the inline style display value, "" when unset.
	Display    string            `json:"display,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Hidden reports whether the element is hidden through its inline style.
func (e Element) Hidden() bool {
	return e.Display == "none"
}

// Pane is the measured width of one layout region.
type Pane struct {
	Selector string `json:"selector"`
	Width    int    `json:"width"`
	Present  bool   `json:"present"`
}

// Layout holds pane widths and the window size at the moment of measurement.
type Layout struct {
	Panes          []Pane `json:"panes"`
	ViewportWidth  int    `json:"viewport_width"`
	ViewportHeight int    `json:"viewport_height"`
}

// PaneTotal sums the widths of all measured panes.
func (l Layout) PaneTotal() int {
	total := 0
	for _, p := range l.Panes {
		total += p.Width
	}
	return total
}

// Fits reports whether the panes fit within the window width.
func (l Layout) Fits() bool {
	return l.PaneTotal() <= l.ViewportWidth
}

// Width returns the measured width of the pane matching selector, or 0.
func (l Layout) Width(selector string) int {
	for _, p := range l.Panes {
		if p.Selector == selector {
			return p.Width
		}
	}
	return 0
}
