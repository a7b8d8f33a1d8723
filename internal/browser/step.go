package browser

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"pagewatch.dev/core/internal/model"
)

// titleSubstring marks a selector as wanting the document title rather
// than textContent, per the title-extraction special case.
const titleSubstring = "title"

// ExecuteStep runs a single browser action and reports its outcome. It is
// the primitive InteractiveAgent drives one step at a time; Execute (plan
// replay) calls it too, wrapped in retry/optional/mandatory handling.
func (s *Session) ExecuteStep(ctx context.Context, step model.Step) (model.StepOutcome, error) {
	start := time.Now()
	runCtx := s.withTimeout(ctx)

	result, err := s.dispatch(runCtx, step)
	outcome := model.StepOutcome{
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		outcome.Success = false
		outcome.Error = err.Error()
		return outcome, nil
	}
	outcome.Success = true
	outcome.Result = result
	return outcome, nil
}

func (s *Session) dispatch(ctx context.Context, step model.Step) (map[string]any, error) {
	switch step.Type {
	case model.StepNavigate:
		return nil, chromedp.Run(ctx, chromedp.Navigate(step.URL))

	case model.StepClick:
		return nil, chromedp.Run(ctx, chromedp.Click(step.Selector, chromedp.ByQuery))

	case model.StepTyping:
		return nil, chromedp.Run(ctx, chromedp.SendKeys(step.Selector, step.Value, chromedp.ByQuery))

	case model.StepSelect:
		return nil, chromedp.Run(ctx, chromedp.SetValue(step.Selector, step.Value, chromedp.ByQuery))

	case model.StepHover:
		return nil, chromedp.Run(ctx, hoverAction(step.Selector))

	case model.StepKeyPress:
		return nil, chromedp.Run(ctx, chromedp.KeyEvent(step.Key))

	case model.StepScroll:
		return nil, chromedp.Run(ctx, scrollAction(step.Scroll))

	case model.StepWait:
		return nil, chromedp.Run(ctx, chromedp.Sleep(time.Duration(step.WaitMs)*time.Millisecond))

	case model.StepWaitForSelector:
		return nil, s.waitForSelector(ctx, step)

	case model.StepExtract:
		return s.extract(ctx, step)

	case model.StepEvaluate:
		var out any
		if err := chromedp.Run(ctx, chromedp.Evaluate(step.Script, &out)); err != nil {
			return nil, err
		}
		return map[string]any{"value": out}, nil

	case model.StepScreenshot:
		var buf []byte
		action := captureScreenshotJPEG(&buf)
		if step.FullPage {
			action = chromedp.FullScreenshot(&buf, screenshotQuality)
		}
		if err := chromedp.Run(ctx, action); err != nil {
			return nil, err
		}
		return map[string]any{"screenshot": encodeScreenshot(buf)}, nil

	case model.StepReload:
		return nil, chromedp.Run(ctx, chromedp.Reload())

	case model.StepGoBack:
		return nil, chromedp.Run(ctx, chromedp.Evaluate("window.history.back()", nil))

	case model.StepGoForward:
		return nil, chromedp.Run(ctx, chromedp.Evaluate("window.history.forward()", nil))

	default:
		return nil, model.NewBrowserExecutionError("unknown step type", step.ID, nil)
	}
}

// waitForSelector honors the title-extraction special case: a selector
// containing "title" waits only for attached state, never visibility,
// since the document title has no visibility of its own.
func (s *Session) waitForSelector(ctx context.Context, step model.Step) error {
	state := model.WaitStateVisible
	timeout := 10000
	if step.WaitForSelector != nil {
		if step.WaitForSelector.State != "" {
			state = step.WaitForSelector.State
		}
		if step.WaitForSelector.TimeoutMs > 0 {
			timeout = step.WaitForSelector.TimeoutMs
		}
	}
	if isTitleSelector(step.Selector) {
		state = model.WaitStateAttached
	}

	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Millisecond)
	defer cancel()

	if state == model.WaitStateAttached {
		return chromedp.Run(waitCtx, chromedp.WaitReady(step.Selector, chromedp.ByQuery))
	}
	return chromedp.Run(waitCtx, chromedp.WaitVisible(step.Selector, chromedp.ByQuery))
}

// extract implements the title-extraction special case and multi-result
// extraction: options.multiple yields a list, single-result returns the
// first match or the typed primitive for input values.
func (s *Session) extract(ctx context.Context, step model.Step) (map[string]any, error) {
	if isTitleSelector(step.Selector) {
		var title string
		if err := chromedp.Run(ctx, chromedp.Title(&title)); err != nil {
			return nil, err
		}
		return map[string]any{"value": title}, nil
	}

	opts := step.Extract
	multiple := opts != nil && opts.Multiple
	kind := model.ExtractKindText
	if opts != nil && opts.Kind != "" {
		kind = opts.Kind
	}

	if multiple {
		values, err := s.extractMultiple(ctx, step.Selector, kind, opts)
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": values}, nil
	}

	value, err := s.extractOne(ctx, step.Selector, kind, opts)
	if err != nil {
		return nil, err
	}
	return map[string]any{"value": value}, nil
}

func (s *Session) extractOne(ctx context.Context, selector string, kind model.ExtractKind, opts *model.ExtractOptions) (string, error) {
	var value string
	var err error
	switch kind {
	case model.ExtractKindHTML:
		err = chromedp.Run(ctx, chromedp.InnerHTML(selector, &value, chromedp.ByQuery))
	case model.ExtractKindValue:
		err = chromedp.Run(ctx, chromedp.Value(selector, &value, chromedp.ByQuery))
	case model.ExtractKindAttribute:
		attr := ""
		if opts != nil {
			attr = opts.Attribute
		}
		var ok bool
		err = chromedp.Run(ctx, chromedp.AttributeValue(selector, attr, &value, &ok, chromedp.ByQuery))
	default:
		err = chromedp.Run(ctx, chromedp.Text(selector, &value, chromedp.ByQuery))
	}
	return value, err
}

// extractMultiple has no bulk counterpart in chromedp's action set, so it
// evaluates a small querySelectorAll script and maps the result back into
// a []string; this is the standard workaround for multi-element reads.
func (s *Session) extractMultiple(ctx context.Context, selector string, kind model.ExtractKind, opts *model.ExtractOptions) ([]string, error) {
	var script string
	switch kind {
	case model.ExtractKindHTML:
		script = jsQueryAll(selector, "el.innerHTML")
	case model.ExtractKindValue:
		script = jsQueryAll(selector, "el.value")
	case model.ExtractKindAttribute:
		attr := ""
		if opts != nil {
			attr = opts.Attribute
		}
		script = jsQueryAll(selector, "el.getAttribute("+jsString(attr)+")")
	default:
		script = jsQueryAll(selector, "el.textContent")
	}

	var values []string
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &values)); err != nil {
		return nil, err
	}
	return values, nil
}

func jsQueryAll(selector, expr string) string {
	return "Array.from(document.querySelectorAll(" + jsString(selector) + ")).map(el => " + expr + ")"
}

func jsString(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "\\`") + "`"
}

func isTitleSelector(selector string) bool {
	return strings.Contains(strings.ToLower(selector), titleSubstring)
}

// hoverAction dispatches a synthetic mouseMoved event over the matched
// element's center, since chromedp has no built-in hover primitive.
func hoverAction(selector string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var box *dom.BoxModel
		if err := chromedp.Run(ctx, chromedp.Dimensions(selector, &box, chromedp.ByQuery)); err != nil {
			return err
		}
		if box == nil || len(box.Content) < 8 {
			return model.NewBrowserExecutionError("hover target has no box model", "", nil)
		}
		x := (box.Content[0] + box.Content[4]) / 2
		y := (box.Content[1] + box.Content[5]) / 2
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	})
}

// scrollAction applies either an absolute {x,y} offset or a named
// direction (up/down/left/right).
func scrollAction(target *model.ScrollTarget) chromedp.Action {
	if target == nil {
		return chromedp.Evaluate("window.scrollBy(0, window.innerHeight)", nil)
	}
	if target.X != nil || target.Y != nil {
		x, y := 0, 0
		if target.X != nil {
			x = *target.X
		}
		if target.Y != nil {
			y = *target.Y
		}
		return chromedp.Evaluate(scrollByScript(x, y), nil)
	}
	switch target.Direction {
	case "up":
		return chromedp.Evaluate("window.scrollBy(0, -window.innerHeight)", nil)
	case "left":
		return chromedp.Evaluate("window.scrollBy(-window.innerWidth, 0)", nil)
	case "right":
		return chromedp.Evaluate("window.scrollBy(window.innerWidth, 0)", nil)
	default: // "down" or unspecified
		return chromedp.Evaluate("window.scrollBy(0, window.innerHeight)", nil)
	}
}

func scrollByScript(x, y int) string {
	return "window.scrollBy(" + itoa(x) + ", " + itoa(y) + ")"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}
