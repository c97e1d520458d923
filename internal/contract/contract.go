// File: internal/contract/contract.go
package contract

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultIdleLabel is the generate button text when no generation is in flight.
const DefaultIdleLabel = "Generate Design"

// Download names one artifact link the application exposes after generation.
type Download struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Selector string `yaml:"selector"`
}

// Contract maps each logical role of the OpenCraftShop page to the selector
// or literal the scenario depends on. Changing a value here is a breaking
// change to what the harness verifies.
type Contract struct {
	Title            string `yaml:"title"`
	FurnitureType    string `yaml:"furniture_type"`
	FurnitureOptions string `yaml:"furniture_options"`
	Length           string `yaml:"length"`
	Width            string `yaml:"width"`
	Height           string `yaml:"height"`
	GenerateButton   string `yaml:"generate_button"`
	IdleLabel        string `yaml:"idle_label"`
	Results          string `yaml:"results"`
	ViewToggle       string `yaml:"view_toggle"`
	ExplodedToggle   string `yaml:"exploded_toggle"`
	ToggleLabel      string `yaml:"toggle_label"`
	CutDiagram       string `yaml:"cut_diagram"`
	// CutRegion is the element captured when a cut diagram is present.
	CutRegion  string     `yaml:"cut_region"`
	LeftPane   string     `yaml:"left_pane"`
	MiddlePane string     `yaml:"middle_pane"`
	RightPane  string     `yaml:"right_pane"`
	Downloads  []Download `yaml:"downloads"`
	// RenderReady, when set, marks a rendered 3D view. Render settles then
	// wait for it instead of sleeping.
	RenderReady string `yaml:"render_ready"`
}

// Default returns the contract of the current OpenCraftShop UI.
func Default() Contract {
	return Contract{
		Title:            "h1",
		FurnitureType:    "#furniture-type",
		FurnitureOptions: "#furniture-type option",
		Length:           "#length",
		Width:            "#width",
		Height:           "#height",
		GenerateButton:   "#generate-btn",
		IdleLabel:        DefaultIdleLabel,
		Results:          "#results",
		ViewToggle:       "#view-toggle",
		ExplodedToggle:   "#exploded-toggle",
		ToggleLabel:      "#toggle-label",
		CutDiagram:       ".cut-diagram",
		CutRegion:        ".right-pane",
		LeftPane:         ".left-pane",
		MiddlePane:       ".middle-pane",
		RightPane:        ".right-pane",
		Downloads: []Download{
			{ID: "stl-download", Label: "STL", Selector: "#stl-download"},
			{ID: "cut-list-download", Label: "Cut List", Selector: "#cut-list-download"},
			{ID: "shopping-list-download", Label: "Shopping List", Selector: "#shopping-list-download"},
		},
	}
}

// Dimensions returns the selectors of the length, width and height fields in order.
func (c Contract) Dimensions() [3]string {
	return [3]string{c.Length, c.Width, c.Height}
}

// Panes returns the three layout region selectors from left to right.
func (c Contract) Panes() []string {
	return []string{c.LeftPane, c.MiddlePane, c.RightPane}
}

// Validate rejects a contract with an empty selector or literal. RenderReady
// is optional.
func (c Contract) Validate() error {
	v := reflect.ValueOf(c)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Type.Kind() != reflect.String || field.Name == "RenderReady" {
			continue
		}
		if v.Field(i).String() == "" {
			return fmt.Errorf("contract field %q must not be empty", field.Tag.Get("yaml"))
		}
	}

	seen := make(map[string]bool, len(c.Downloads))
	for _, d := range c.Downloads {
		if d.ID == "" || d.Selector == "" {
			return fmt.Errorf("download entries need both id and selector")
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate download id %q", d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}

// Load reads a YAML override file and applies it on top of Default. An empty
// path returns the default contract. A leading "~" is expanded.
func Load(fs afero.Fs, path string) (Contract, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return c, fmt.Errorf("failed to expand contract path %q: %w", path, err)
	}

	data, err := afero.ReadFile(fs, expanded)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, fmt.Errorf("contract file not found: %s", expanded)
		}
		return c, fmt.Errorf("failed to read contract file %s: %w", expanded, err)
	}

	// Fields absent from the file keep their default values.
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse contract file %s: %w", expanded, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid contract %s: %w", expanded, err)
	}
	return c, nil
}
