// Package apicheck smoke tests the OpenCraftShop HTTP API without a browser:
// the home page, design generation for each furniture type, and every file
// the generation reports as downloadable.
package apicheck

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/craftcheck/internal/contract"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	homepageTimeout = 5 * time.Second
	generateTimeout = 30 * time.Second
	downloadTimeout = 5 * time.Second

	// AppMarker must appear in the home page body.
	AppMarker = "OpenCraftShop"
)

var (
	requiredFields = []string{"files", "cut_list_content", "shopping_list_content", "success"}
	requiredFiles  = []string{"stl_assembled", "stl_exploded", "cut_list", "shopping_list"}
)

// Case is one generation request.
type Case struct {
	Type   string  `json:"type"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultCases are the furniture types with their form presets.
func DefaultCases() []Case {
	return []Case{
		{Type: "workbench", Length: 72, Width: 24, Height: 34},
		{Type: "storage_bench", Length: 48, Width: 18, Height: 18},
		{Type: "bed_frame", Length: 80, Width: 60, Height: 14},
		{Type: "bookshelf", Length: 36, Width: 12, Height: 72},
	}
}

// Result is the verdict of a single check.
type Result struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
	// Details holds informational findings that do not affect Passed.
	Details []string `json:"details,omitempty"`
}

// Report collects every check of a run.
type Report struct {
	BaseURL string   `json:"base_url"`
	Results []Result `json:"results"`
}

// Passed counts the passing checks.
func (r Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	return len(r.Results) > 0 && r.Passed() == len(r.Results)
}

// WriteSummary prints a fixed width table of the results.
func (r Report) WriteSummary(w io.Writer) error {
	var b strings.Builder
	rule := strings.Repeat("=", 50)
	b.WriteString(rule + "\nAPI Check Summary\n" + rule + "\n")
	for _, res := range r.Results {
		status := "FAIL"
		if res.Passed {
			status = "PASS"
		}
		fmt.Fprintf(&b, "%-4s | %-25s | %s\n", status, res.Name, res.Message)
		for _, d := range res.Details {
			fmt.Fprintf(&b, "     | %-25s | %s\n", "", d)
		}
	}
	b.WriteString(rule + "\n")
	total := len(r.Results)
	pct := 0
	if total > 0 {
		pct = r.Passed() * 100 / total
	}
	fmt.Fprintf(&b, "Total: %d/%d passed (%d%%)\n", r.Passed(), total, pct)
	_, err := io.WriteString(w, b.String())
	return err
}

// Checker runs the API checks against one base URL.
type Checker struct {
	baseURL  string
	client   *http.Client
	contract contract.Contract
	cases    []Case
	logger   *zap.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(ch *Checker) { ch.client = c }
}

// WithCases replaces DefaultCases.
func WithCases(cases []Case) Option {
	return func(ch *Checker) { ch.cases = cases }
}

// WithContract sets the page contract whose selectors the home page is
// inspected for.
func WithContract(c contract.Contract) Option {
	return func(ch *Checker) { ch.contract = c }
}

// NewChecker creates a Checker for baseURL.
func NewChecker(baseURL string, logger *zap.Logger, opts ...Option) (*Checker, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Checker{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{},
		contract: contract.Default(),
		cases:    DefaultCases(),
		logger:   logger.Named("apicheck"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run executes the home page check and one generation check per case, in
// order. Failures do not stop later checks.
func (c *Checker) Run(ctx context.Context) Report {
	report := Report{BaseURL: c.baseURL}

	c.logger.Info("Checking home page.", zap.String("url", c.baseURL))
	report.Results = append(report.Results, c.CheckHomepage(ctx))

	for _, tc := range c.cases {
		if ctx.Err() != nil {
			report.Results = append(report.Results, Result{Name: tc.Type + " generation", Message: ctx.Err().Error()})
			continue
		}
		c.logger.Info("Checking generation.", zap.String("type", tc.Type))
		report.Results = append(report.Results, c.CheckGeneration(ctx, tc))
	}

	for _, res := range report.Results {
		if res.Passed {
			c.logger.Info("Check passed.", zap.String("check", res.Name), zap.String("message", res.Message))
		} else {
			c.logger.Error("Check failed.", zap.String("check", res.Name), zap.String("message", res.Message))
		}
	}
	return report
}

// CheckHomepage requires a 200 response mentioning the application. It also
// lists page contract selectors absent from the served markup; those are
// details only, since the page builds some elements at runtime.
func (c *Checker) CheckHomepage(ctx context.Context) (res Result) {
	start := time.Now()
	res.Name = "Homepage"
	defer func() { res.Duration = time.Since(start) }()

	reqCtx, cancel := context.WithTimeout(ctx, homepageTimeout)
	defer cancel()

	status, body, err := c.do(reqCtx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		res.Message = fmt.Sprintf("Homepage error: %v", err)
		return res
	}
	if status != http.StatusOK || !bytes.Contains(body, []byte(AppMarker)) {
		res.Message = fmt.Sprintf("Homepage failed: status=%d", status)
		return res
	}

	res.Passed = true
	res.Message = "Homepage loads correctly"
	res.Details = c.missingSelectors(body)
	return res
}

func (c *Checker) missingSelectors(body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return []string{fmt.Sprintf("markup not parseable: %v", err)}
	}
	k := c.contract
	selectors := []string{k.Title, k.FurnitureType, k.Length, k.Width, k.Height, k.GenerateButton, k.Results,
		k.ViewToggle, k.ExplodedToggle, k.ToggleLabel, k.CutDiagram, k.LeftPane, k.MiddlePane, k.RightPane}
	for _, d := range k.Downloads {
		selectors = append(selectors, d.Selector)
	}

	var missing []string
	for _, sel := range selectors {
		if doc.Find(sel).Length() == 0 {
			missing = append(missing, "not in served markup: "+sel)
		}
	}
	if n := doc.Find(k.FurnitureOptions).Length(); n == 0 {
		missing = append(missing, "no furniture options in served markup")
	}
	return missing
}

// CheckGeneration posts tc to /api/generate, verifies the response shape and
// downloads every returned file.
func (c *Checker) CheckGeneration(ctx context.Context, tc Case) (res Result) {
	start := time.Now()
	res.Name = tc.Type + " generation"
	defer func() { res.Duration = time.Since(start) }()

	payload, err := json.Marshal(tc)
	if err != nil {
		res.Message = fmt.Sprintf("Generation error: %v", err)
		return res
	}

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()
	status, body, err := c.do(genCtx, http.MethodPost, c.baseURL+"/api/generate", payload)
	if err != nil {
		res.Message = fmt.Sprintf("Generation error: %v", err)
		return res
	}
	if status != http.StatusOK {
		res.Message = fmt.Sprintf("Generation failed with status %d", status)
		return res
	}

	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		res.Message = fmt.Sprintf("Generation error: invalid JSON: %v", err)
		return res
	}
	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			res.Message = "Missing field: " + f
			return res
		}
	}

	var files map[string]string
	if err := json.Unmarshal(fields["files"], &files); err != nil {
		res.Message = fmt.Sprintf("Generation error: files is not a name map: %v", err)
		return res
	}
	for _, f := range requiredFiles {
		if _, ok := files[f]; !ok {
			res.Message = "Missing file: " + f
			return res
		}
	}

	kinds := make([]string, 0, len(files))
	for kind := range files {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	for _, kind := range kinds {
		name := files[kind]
		if err := c.download(ctx, name); err != nil {
			res.Message = fmt.Sprintf("Download failed for %s: %v", name, err)
			return res
		}
	}

	var cutList string
	_ = json.Unmarshal(fields["cut_list_content"], &cutList)
	hasTable := HasTable(cutList)

	res.Passed = true
	res.Message = fmt.Sprintf("Generated successfully (files: %d, table format: %t)", len(files), hasTable)
	res.Details = []string{fmt.Sprintf("cut list: %d lines", countLines(cutList))}
	return res
}

func (c *Checker) download(ctx context.Context, name string) error {
	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()
	status, _, err := c.do(dlCtx, http.MethodGet, c.baseURL+"/api/download/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("status %d", status)
	}
	return nil
}

func (c *Checker) do(ctx context.Context, method, target string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// HasTable reports whether a cut list uses box drawing characters.
func HasTable(content string) bool {
	return strings.ContainsAny(content, "│┌")
}

func countLines(s string) int {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
