// internal/browser/observer.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/craftcheck/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// snapshotFn is shared by Query and QueryAll. It copies the fields the
// scenario reads off an element so no live handle escapes the page.
const snapshotFn = `function(el) {
	const attrs = {};
	for (const a of Array.from(el.attributes || [])) { attrs[a.name] = a.value; }
	return {
		tag: el.tagName ? el.tagName.toLowerCase() : '',
		id: el.id || '',
		text: el.textContent || '',
		value: ('value' in el && el.value != null) ? String(el.value) : '',
		href: (typeof el.href === 'string') ? el.href : '',
		display: el.style ? el.style.display : '',
		attributes: attrs
	};
}`

// evalOptions makes Evaluate return JSON values and never surface page
// exceptions in the console.
func evalOptions(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
}

// evaluateRaw runs script and returns its JSON encoded result.
func (s *Session) evaluateRaw(ctx context.Context, script string) ([]byte, error) {
	opCtx, cancel := withOperationTimeout(ctx)
	defer cancel()

	var raw []byte
	if err := s.RunActions(opCtx, chromedp.Evaluate(script, &raw, evalOptions)); err != nil {
		if opCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, fmt.Errorf("script evaluation timed out after %s: %w", operationTimeout, opCtx.Err())
		}
		return nil, fmt.Errorf("script evaluation failed: %w", err)
	}
	return raw, nil
}

// Query snapshots the first element matching selector.
func (s *Session) Query(ctx context.Context, selector string) (schemas.Element, error) {
	script := fmt.Sprintf(`(function(selector) {
		const snap = %s;
		const el = document.querySelector(selector);
		return el ? { found: true, element: snap(el) } : { found: false };
	})(%s)`, snapshotFn, jsonEncode(selector))

	raw, err := s.evaluateRaw(ctx, script)
	if err != nil {
		return schemas.Element{}, fmt.Errorf("query %q: %w", selector, err)
	}

	var res struct {
		Found   bool            `json:"found"`
		Element schemas.Element `json:"element"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return schemas.Element{}, fmt.Errorf("query %q: decoding snapshot: %w", selector, err)
	}
	if !res.Found {
		return schemas.Element{}, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return res.Element, nil
}

// QueryAll snapshots every element matching selector in document order.
func (s *Session) QueryAll(ctx context.Context, selector string) ([]schemas.Element, error) {
	script := fmt.Sprintf(`(function(selector) {
		const snap = %s;
		return Array.from(document.querySelectorAll(selector)).map(snap);
	})(%s)`, snapshotFn, jsonEncode(selector))

	raw, err := s.evaluateRaw(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("query all %q: %w", selector, err)
	}

	elements := []schemas.Element{}
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("query all %q: decoding snapshots: %w", selector, err)
	}
	return elements, nil
}

// Evaluate applies extractor, a JavaScript function expression taking the
// element, to the first match of selector and decodes the result into out.
// out may be nil when only presence matters.
func (s *Session) Evaluate(ctx context.Context, selector, extractor string, out interface{}) error {
	script := fmt.Sprintf(`(function(selector) {
		const el = document.querySelector(selector);
		if (!el) { return { found: false }; }
		const extract = (%s);
		return { found: true, value: extract(el) };
	})(%s)`, extractor, jsonEncode(selector))

	raw, err := s.evaluateRaw(ctx, script)
	if err != nil {
		return fmt.Errorf("evaluate on %q: %w", selector, err)
	}

	var res struct {
		Found bool                `json:"found"`
		Value jsoniter.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("evaluate on %q: decoding result: %w", selector, err)
	}
	if !res.Found {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	if out == nil || len(res.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Value, out); err != nil {
		return fmt.Errorf("evaluate on %q: decoding value: %w", selector, err)
	}
	return nil
}

// Visible reports whether the first match is not hidden by its inline style.
// Only style.display is consulted, which is how the application toggles panes.
func (s *Session) Visible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	if err := s.Evaluate(ctx, selector, `el => el.style.display !== 'none'`, &visible); err != nil {
		return false, err
	}
	return visible, nil
}

// Layout measures the offsetWidth of each selector, 0 for absent ones, and
// the window's inner size.
func (s *Session) Layout(ctx context.Context, selectors ...string) (schemas.Layout, error) {
	script := fmt.Sprintf(`(function(selectors) {
		return {
			panes: selectors.map(function(sel) {
				const el = document.querySelector(sel);
				return { selector: sel, width: el ? el.offsetWidth : 0, present: !!el };
			}),
			viewport_width: window.innerWidth,
			viewport_height: window.innerHeight
		};
	})(%s)`, jsonEncode(selectors))

	raw, err := s.evaluateRaw(ctx, script)
	if err != nil {
		return schemas.Layout{}, fmt.Errorf("layout: %w", err)
	}
	var layout schemas.Layout
	if err := json.Unmarshal(raw, &layout); err != nil {
		return schemas.Layout{}, fmt.Errorf("layout: decoding result: %w", err)
	}
	return layout, nil
}

// jsonEncode encodes v as a JavaScript literal for script injection.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}
