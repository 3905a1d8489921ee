package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// Session drives a real browser. It implements Fetcher by reading the
// live DOM, and can push the same warning markup the offline annotator
// produces back into the page. Everything here is best effort; a page
// that refuses to settle just stays undecorated.
type Session struct {
	taskCtx context.Context
	cancels []context.CancelFunc
	lastURL string
}

// NewSession starts a headless browser. ctx bounds the whole session
// lifetime, not a single navigation.
func NewSession(ctx context.Context) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("mute-audio", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)

	// Force the browser to actually start so a missing binary fails
	// here instead of on the first navigation.
	if err := chromedp.Run(taskCtx); err != nil {
		cancelTask()
		cancelAlloc()
		return nil, fmt.Errorf("browser start failed: %w", err)
	}

	return &Session{
		taskCtx: taskCtx,
		cancels: []context.CancelFunc{cancelTask, cancelAlloc},
	}, nil
}

// Close tears the browser down.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// CurrentURL reports where the browser is, used to detect in-page
// (history API) navigations that never load a new document.
func (s *Session) CurrentURL() (string, error) {
	runCtx, cancel := context.WithTimeout(s.taskCtx, 5*time.Second)
	defer cancel()

	var loc string
	if err := chromedp.Run(runCtx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("location read failed: %w", err)
	}
	return loc, nil
}

// Fetch snapshots the live DOM for pageURL. Repeated calls with the
// same URL re-read the DOM without navigating again, which is what the
// controller's appearance wait needs on a single-page app.
func (s *Session) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	runCtx, cancel := context.WithTimeout(s.taskCtx, 15*time.Second)
	defer cancel()

	actions := []chromedp.Action{}
	if pageURL != s.lastURL {
		actions = append(actions,
			chromedp.Navigate(pageURL),
			chromedp.WaitReady("body"),
		)
	}
	var outer string
	actions = append(actions, chromedp.OuterHTML("html", &outer))

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, fmt.Errorf("dom snapshot failed: %w", err)
	}
	s.lastURL = pageURL

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return goquery.NewDocumentFromReader(strings.NewReader(outer))
}

// Apply injects warning markup into the live page for the regions the
// offline pass decided to decorate, using the same marker class and
// sentinel attribute so re-application stays a no-op.
func (s *Session) Apply(res *Result, probes Probes) error {
	if res == nil || res.State != StateDecorated {
		return nil
	}

	var list []Probe
	switch res.Kind {
	case KindChannel:
		list = probes.HeaderRoot
	case KindWatch:
		list = probes.VideoTitle
	default:
		return nil
	}
	script, err := warnInjectionScript(list)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(s.taskCtx, 5*time.Second)
	defer cancel()

	var inserted bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &inserted)); err != nil {
		return fmt.Errorf("warning injection failed: %w", err)
	}
	return nil
}

// warnInjectionScript builds the in-page JS that applies the warning
// markup under the same ordered-probe rule as the offline pass: the
// first selector in the list that matches wins.
func warnInjectionScript(list []Probe) (string, error) {
	selectors := make([]string, 0, len(list))
	for _, p := range list {
		selectors = append(selectors, p.Selector)
	}
	selJSON, err := json.Marshal(selectors)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`(function() {
	var sels = %s;
	var el = null;
	for (var i = 0; i < sels.length && !el; i++) { el = document.querySelector(sels[i]); }
	if (!el || el.classList.contains(%q)) { return false; }
	var warn = document.createElement("span");
	warn.className = %q;
	warn.setAttribute(%q, "1");
	warn.textContent = %q;
	el.insertBefore(warn, el.firstChild);
	el.classList.add(%q);
	return true;
})()`, selJSON, WarnedClass, WarningClass, SentinelAttr, warningText, WarnedClass), nil
}
