// internal/scenario/fakepage_test.go
package scenario

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xkilldash9x/craftcheck/api/schemas"
	"github.com/xkilldash9x/craftcheck/internal/browser"
)

var testPNG = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

// fakePage scripts the OpenCraftShop page in memory. Clicking generate makes
// the button busy for busyReads label reads before it returns to idle.
type fakePage struct {
	mu sync.Mutex

	navErr       error
	fullErr      error
	noTitle      bool
	hang         bool
	busyReads    int
	hideViewer   bool
	noCutDiagram bool
	noDownloads  bool
	stickyToggle bool
	renderMarker bool
	emptyDim     string
	panelWidths  [3]int
	viewport     int

	furnitureType string
	dims          map[string][3]string
	label         string
	pendingReads  int
	generated     string
	toggles       int
	toggleLabel   string

	calls []string
}

func newFakePage() *fakePage {
	return &fakePage{
		busyReads:   2,
		panelWidths: [3]int{480, 864, 576},
		viewport:    1920,
		dims: map[string][3]string{
			"workbench":     {"72", "24", "34"},
			"storage_bench": {"48", "18", "18"},
			"bed_frame":     {"80", "60", "14"},
			"bookshelf":     {"36", "12", "72"},
		},
		furnitureType: "workbench",
		label:         "Generate Design",
		toggleLabel:   "Assembled",
	}
}

func (f *fakePage) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakePage) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func notFound(sel string) error {
	return fmt.Errorf("%w: %s", browser.ErrNotFound, sel)
}

func (f *fakePage) element(sel string) (schemas.Element, bool) {
	switch sel {
	case "h1":
		if f.noTitle {
			return schemas.Element{}, false
		}
		return schemas.Element{Tag: "h1", Text: " OpenCraftShop \n"}, true
	case "#length", "#width", "#height":
		idx := map[string]int{"#length": 0, "#width": 1, "#height": 2}[sel]
		v := f.dims[f.furnitureType][idx]
		if f.emptyDim == f.furnitureType {
			v = ""
		}
		return schemas.Element{Tag: "input", ID: strings.TrimPrefix(sel, "#"), Value: v}, true
	case "#generate-btn":
		if f.pendingReads > 0 {
			f.pendingReads--
			if f.pendingReads == 0 && !f.hang {
				f.finishGeneration()
			}
			return schemas.Element{Tag: "button", Text: "Generating..."}, true
		}
		return schemas.Element{Tag: "button", Text: f.label}, true
	case "#results":
		d := "none"
		if f.generated != "" {
			d = "block"
		}
		return schemas.Element{Tag: "div", Display: d}, true
	case "#view-toggle":
		d := "none"
		if f.generated != "" && !f.hideViewer {
			d = "block"
		}
		return schemas.Element{Tag: "div", Display: d}, true
	case "#toggle-label":
		return schemas.Element{Tag: "span", Text: f.toggleLabel}, true
	case "#exploded-toggle":
		return schemas.Element{Tag: "button"}, true
	case ".cut-diagram":
		if f.noCutDiagram {
			return schemas.Element{}, false
		}
		var lines []string
		for i := 1; i <= 14; i++ {
			lines = append(lines, fmt.Sprintf("line %d %s", i, f.generated))
		}
		return schemas.Element{Tag: "div", Text: strings.Join(lines, "\n")}, true
	case ".right-pane":
		return schemas.Element{Tag: "div"}, true
	case "#stl-download", "#cut-list-download", "#shopping-list-download":
		if f.noDownloads {
			return schemas.Element{}, false
		}
		suffix := map[string]string{
			"#stl-download":           "_assembled.stl",
			"#cut-list-download":      "_cut_list.txt",
			"#shopping-list-download": "_shopping_list.txt",
		}[sel]
		return schemas.Element{Tag: "a", Href: "http://web:5000/api/download/" + f.generated + suffix}, true
	case "#render-done":
		if f.renderMarker && f.generated != "" {
			return schemas.Element{Tag: "div"}, true
		}
		return schemas.Element{}, false
	}
	return schemas.Element{}, false
}

func (f *fakePage) finishGeneration() {
	f.label = "Generate Design"
	f.generated = f.furnitureType
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("navigate " + url)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", browser.ErrNavigation, err)
	}
	return f.navErr
}

func (f *fakePage) Query(ctx context.Context, sel string) (schemas.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if el, ok := f.element(sel); ok {
		return el, nil
	}
	return schemas.Element{}, notFound(sel)
}

func (f *fakePage) QueryAll(ctx context.Context, sel string) ([]schemas.Element, error) {
	if sel != "#furniture-type option" {
		return []schemas.Element{}, nil
	}
	return []schemas.Element{
		{Tag: "option", Value: "workbench", Text: "Workbench"},
		{Tag: "option", Value: "bookshelf", Text: "Bookshelf"},
		{Tag: "option", Value: "bed_frame", Text: "Bed Frame"},
		{Tag: "option", Value: "storage_bench", Text: "Storage Bench"},
	}, nil
}

func (f *fakePage) Evaluate(ctx context.Context, sel, extractor string, out interface{}) error {
	return fmt.Errorf("fake page does not run scripts")
}

func (f *fakePage) Visible(ctx context.Context, sel string) (bool, error) {
	el, err := f.Query(ctx, sel)
	if err != nil {
		return false, err
	}
	return !el.Hidden(), nil
}

func (f *fakePage) Layout(ctx context.Context, sels ...string) (schemas.Layout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := schemas.Layout{ViewportWidth: f.viewport, ViewportHeight: 1080}
	for i, sel := range sels {
		w := 0
		if i < len(f.panelWidths) {
			w = f.panelWidths[i]
		}
		l.Panes = append(l.Panes, schemas.Pane{Selector: sel, Width: w, Present: w > 0})
	}
	return l, nil
}

func (f *fakePage) Select(ctx context.Context, sel, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("select " + value)
	if _, ok := f.dims[value]; !ok || sel != "#furniture-type" {
		return notFound(sel)
	}
	f.furnitureType = value
	return nil
}

func (f *fakePage) Click(ctx context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("click " + sel)
	switch sel {
	case "#generate-btn":
		f.pendingReads = f.busyReads
		if f.hang {
			f.pendingReads = 1 << 30
		}
		if f.pendingReads == 0 {
			f.finishGeneration()
		}
		return nil
	case "#exploded-toggle":
		if f.stickyToggle && f.toggles > 0 {
			return nil
		}
		f.toggles++
		if f.toggleLabel == "Assembled" {
			f.toggleLabel = "Exploded"
		} else {
			f.toggleLabel = "Assembled"
		}
		return nil
	}
	if _, ok := f.element(sel); !ok {
		return notFound(sel)
	}
	return nil
}

func (f *fakePage) SetViewport(ctx context.Context, width, height int) error {
	return nil
}

func (f *fakePage) FullScreenshot(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fullErr != nil {
		return nil, f.fullErr
	}
	return testPNG, nil
}

func (f *fakePage) ViewportScreenshot(ctx context.Context) ([]byte, error) {
	return testPNG, nil
}

func (f *fakePage) ElementScreenshot(ctx context.Context, sel string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.element(sel); !ok {
		return nil, notFound(sel)
	}
	return testPNG, nil
}
