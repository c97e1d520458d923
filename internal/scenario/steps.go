// internal/scenario/steps.go
package scenario

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/xkilldash9x/craftcheck/api/schemas"
	"github.com/xkilldash9x/craftcheck/internal/artifacts"
)

// Step names, in run order.
const (
	StepInitialLoad    = "initial-load"
	StepTypeSelection  = "type-selection"
	StepGenerateDesign = "generate-design"
	StepViewToggle     = "view-toggle"
	StepCutDiagram     = "cut-diagram"
	StepDownloadLinks  = "download-links"
	StepLayout         = "layout"
	StepOtherTypes     = "other-types"
)

// DefaultSteps is the OpenCraftShop UI scenario.
func DefaultSteps() []Step {
	return []Step{
		{Name: StepInitialLoad, Run: initialLoad},
		{Name: StepTypeSelection, Run: typeSelection},
		{Name: StepGenerateDesign, Run: generateDesign},
		{Name: StepViewToggle, Run: viewToggle},
		{Name: StepCutDiagram, Run: cutDiagram},
		{Name: StepDownloadLinks, Run: downloadLinks},
		{Name: StepLayout, Run: layout},
		{Name: StepOtherTypes, Run: otherTypes},
	}
}

func initialLoad(ctx context.Context, env *Env) error {
	c := env.Contract
	if err := env.Capture(ctx, artifacts.InitialLoad, schemas.ScopeFullPage, ""); err != nil {
		return err
	}

	title, err := env.Text(ctx, c.Title)
	if IsNotFound(err) {
		return assertionf("title element %s is missing", c.Title)
	}
	if err != nil {
		return fmt.Errorf("reading title: %w", err)
	}
	env.Observe("title", title)

	elements, err := env.Page.QueryAll(ctx, c.FurnitureOptions)
	if err != nil {
		return fmt.Errorf("listing furniture types: %w", err)
	}
	options := make([]schemas.Option, 0, len(elements))
	for _, el := range elements {
		options = append(options, schemas.Option{Value: el.Value, Label: strings.TrimSpace(el.Text)})
	}
	env.Options = options
	if len(options) == 0 {
		env.Warn("furniture_types", options)
		return nil
	}
	env.Observe("furniture_types", options)
	return nil
}

func typeSelection(ctx context.Context, env *Env) error {
	for _, furnitureType := range env.Scenario.SelectionTypes {
		if err := selectType(ctx, env, furnitureType); err != nil {
			return err
		}
		dims, err := readDimensions(ctx, env, furnitureType)
		if err != nil {
			return err
		}
		env.Observe("dimensions."+furnitureType, dims)
		if err := env.Capture(ctx, artifacts.TypeSelection(furnitureType), schemas.ScopeViewport, ""); err != nil {
			return err
		}
	}
	return nil
}

// readDimensions requires all three fields to hold a number.
func readDimensions(ctx context.Context, env *Env, furnitureType string) (schemas.Dimensions, error) {
	c := env.Contract
	fields := [3]struct {
		name     string
		selector string
	}{{"length", c.Length}, {"width", c.Width}, {"height", c.Height}}

	var values [3]float64
	for i, f := range fields {
		el, err := env.Page.Query(ctx, f.selector)
		if IsNotFound(err) {
			return schemas.Dimensions{}, assertionf("%s field %s is missing", f.name, f.selector)
		}
		if err != nil {
			return schemas.Dimensions{}, fmt.Errorf("reading %s: %w", f.name, err)
		}
		raw := strings.TrimSpace(el.Value)
		if raw == "" {
			return schemas.Dimensions{}, assertionf("%s is empty after selecting %s", f.name, furnitureType)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return schemas.Dimensions{}, assertionf("%s %q is not numeric after selecting %s", f.name, raw, furnitureType)
		}
		values[i] = v
	}
	return schemas.Dimensions{Length: values[0], Width: values[1], Height: values[2]}, nil
}

func generateDesign(ctx context.Context, env *Env) error {
	c := env.Contract
	baseline := env.Scenario.BaselineType
	if err := generate(ctx, env, baseline); err != nil {
		return err
	}

	results, err := env.Page.Visible(ctx, c.Results)
	if IsNotFound(err) {
		return assertionf("results container %s is missing", c.Results)
	}
	if err != nil {
		return fmt.Errorf("checking results: %w", err)
	}
	env.Observe("results_visible", results)
	if !results {
		return assertionf("results container %s is hidden after generating %s", c.Results, baseline)
	}

	viewer, err := env.Page.Visible(ctx, c.ViewToggle)
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("checking viewer: %w", err)
	}
	env.ViewerVisible = viewer
	if viewer {
		env.Observe("viewer_visible", true)
	} else {
		env.Warn("viewer_visible", false)
	}

	return env.Capture(ctx, artifacts.GeneratedDesign, schemas.ScopeFullPage, "")
}

func viewToggle(ctx context.Context, env *Env) error {
	c := env.Contract
	if !env.ViewerVisible {
		return Skip("viewer toggle is not visible")
	}

	if err := env.Capture(ctx, artifacts.AssembledView, schemas.ScopeViewport, ""); err != nil {
		return err
	}

	before, beforeErr := env.Text(ctx, c.ToggleLabel)
	switch {
	case beforeErr == nil:
		env.Observe("view_mode.initial", before)
	case IsNotFound(beforeErr):
		env.Warn("view_mode.initial", "label missing")
	default:
		return fmt.Errorf("reading toggle label: %w", beforeErr)
	}

	after, err := toggleView(ctx, env)
	if err != nil {
		return err
	}
	env.Observe("view_mode", after)
	if beforeErr == nil && after == before {
		env.Warn("view_mode.changed", false)
	}

	if err := env.Capture(ctx, artifacts.ExplodedView, schemas.ScopeViewport, ""); err != nil {
		return err
	}

	if !env.Scenario.VerifyToggleRoundTrip || beforeErr != nil {
		return nil
	}
	back, err := toggleView(ctx, env)
	if err != nil {
		return err
	}
	if back != before {
		return assertionf("toggle label is %q after toggling twice, want %q", back, before)
	}
	env.Observe("view_mode.round_trip", back)
	return nil
}

// toggleView clicks the render mode toggle, lets the model reload, and
// returns the new label.
func toggleView(ctx context.Context, env *Env) (string, error) {
	c := env.Contract
	if err := env.Page.Click(ctx, c.ExplodedToggle); err != nil {
		return "", fmt.Errorf("clicking %s: %w", c.ExplodedToggle, err)
	}
	if err := renderSettle(ctx, env, "view mode render"); err != nil {
		return "", err
	}
	label, err := env.Text(ctx, c.ToggleLabel)
	if IsNotFound(err) {
		return "", assertionf("toggle label %s is missing after toggling", c.ToggleLabel)
	}
	if err != nil {
		return "", fmt.Errorf("reading toggle label: %w", err)
	}
	return label, nil
}

func cutDiagram(ctx context.Context, env *Env) error {
	c := env.Contract
	el, err := env.Page.Query(ctx, c.CutDiagram)
	if IsNotFound(err) {
		env.Warn("cut_diagram_present", false)
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking for cut diagram: %w", err)
	}
	env.Observe("cut_diagram_present", true)

	if err := env.Capture(ctx, artifacts.CutVisualization, schemas.ScopeElement, c.CutRegion); err != nil {
		return err
	}
	env.Observe("cut_diagram_sample", SampleLines(el.Text, env.Scenario.CutSampleLines))
	return nil
}

// SampleLines returns the first n lines of text.
func SampleLines(text string, n int) []string {
	if n <= 0 {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

func downloadLinks(ctx context.Context, env *Env) error {
	var (
		links  []schemas.DownloadLink
		absent []string
	)
	seen := make(map[string]bool)
	for _, d := range env.Contract.Downloads {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true

		el, err := env.Page.Query(ctx, d.Selector)
		if IsNotFound(err) {
			absent = append(absent, d.ID)
			continue
		}
		if err != nil {
			return fmt.Errorf("reading download %s: %w", d.ID, err)
		}
		name := FileName(el.Href)
		links = append(links, schemas.DownloadLink{
			ID:          d.ID,
			Label:       d.Label,
			URL:         el.Href,
			FileName:    name,
			MatchesType: env.GeneratedType != "" && strings.Contains(name, env.GeneratedType),
		})
	}

	env.Observe("downloads", links)
	if len(absent) > 0 {
		env.Warn("downloads.absent", absent)
	}
	for _, l := range links {
		if !l.MatchesType {
			env.Warn("downloads.mismatch."+l.ID, l.FileName)
		}
	}
	return nil
}

// FileName returns the last path segment of a link target.
func FileName(href string) string {
	if u, err := url.Parse(href); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	trimmed := strings.TrimRight(href, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func layout(ctx context.Context, env *Env) error {
	c := env.Contract
	l, err := env.Page.Layout(ctx, c.Panes()...)
	if err != nil {
		return fmt.Errorf("measuring layout: %w", err)
	}
	env.Observe("layout", map[string]int{
		"left":   l.Width(c.LeftPane),
		"middle": l.Width(c.MiddlePane),
		"right":  l.Width(c.RightPane),
		"total":  l.ViewportWidth,
	})
	if l.Fits() {
		env.Observe("layout.fits", true)
	} else {
		env.Warn("layout.fits", fmt.Sprintf("panes %dpx exceed viewport %dpx", l.PaneTotal(), l.ViewportWidth))
	}
	return nil
}

func otherTypes(ctx context.Context, env *Env) error {
	for _, furnitureType := range env.Scenario.AdditionalTypes {
		if err := generate(ctx, env, furnitureType); err != nil {
			return err
		}
		if err := env.Capture(ctx, artifacts.TypeResult(furnitureType), schemas.ScopeFullPage, ""); err != nil {
			return err
		}
	}
	return nil
}
