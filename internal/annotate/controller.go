package annotate

import (
	"context"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/orthrauku-dev/yt-sus/internal/identity"
	"github.com/orthrauku-dev/yt-sus/internal/model"
)

// PageKind classifies a navigation target.
type PageKind string

const (
	KindChannel PageKind = "channel"
	KindWatch   PageKind = "watch"
	KindOther   PageKind = "other"
)

// State of one page view.
type State string

const (
	StateIdle       State = "idle"
	StateResolving  State = "resolving"
	StateDecorated  State = "decorated"
	StateNotFlagged State = "not-flagged"
)

// StateSource is the slice of the coordinator the controller reads.
type StateSource interface {
	Channels(ctx context.Context) (model.FlaggedSet, error)
	Settings(ctx context.Context) (model.Settings, error)
}

// Fetcher produces the current document for a URL. The host page is a
// single-page app, so the same URL may need several fetches before the
// region of interest exists; the controller drives that through the
// bounded wait.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// Result reports what one evaluation pass did.
type Result struct {
	State     State
	Kind      PageKind
	MatchedID string
	Doc       *goquery.Document
}

// Controller runs the per-page-view state machine. It tracks the
// current channel/video so repeated signals for the same view are not
// reprocessed, and re-enters resolving on navigation and on
// highlight/settings updates.
type Controller struct {
	src     StateSource
	ann     *Annotator
	fetch   Fetcher
	wait    time.Duration
	retryIn time.Duration

	mu             sync.Mutex
	state          State
	currentURL     string
	currentChannel string
	currentVideo   string
}

func NewController(src StateSource, ann *Annotator, fetch Fetcher) *Controller {
	return &Controller{
		src:     src,
		ann:     ann,
		fetch:   fetch,
		wait:    DefaultWait,
		retryIn: 250 * time.Millisecond,
		state:   StateIdle,
	}
}

// State returns the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Navigated handles a navigation-finished signal for pageURL. A signal
// for the view already decorated (same video or channel id) is a no-op.
func (c *Controller) Navigated(ctx context.Context, pageURL string) (*Result, error) {
	kind := Classify(pageURL)

	c.mu.Lock()
	switch kind {
	case KindWatch:
		if vid := videoID(pageURL); vid != "" && vid == c.currentVideo && c.state != StateIdle {
			c.mu.Unlock()
			return &Result{State: c.state, Kind: kind}, nil
		}
	case KindChannel:
		if id, ok := channelFromURL(pageURL); ok && id == c.currentChannel && c.state != StateIdle {
			c.mu.Unlock()
			return &Result{State: c.state, Kind: kind}, nil
		}
	case KindOther:
		c.state = StateIdle
		c.currentURL = pageURL
		c.currentChannel = ""
		c.currentVideo = ""
		c.mu.Unlock()
		return &Result{State: StateIdle, Kind: KindOther}, nil
	}
	c.state = StateResolving
	c.currentURL = pageURL
	c.currentVideo = videoID(pageURL)
	c.currentChannel, _ = channelFromURL(pageURL)
	c.mu.Unlock()

	return c.resolve(ctx, pageURL, kind)
}

// Reevaluate re-runs the last navigation, used when highlights or
// settings change under an already-rendered view.
func (c *Controller) Reevaluate(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	pageURL := c.currentURL
	c.state = StateIdle
	c.mu.Unlock()
	if pageURL == "" {
		return &Result{State: StateIdle, Kind: KindOther}, nil
	}
	return c.Navigated(ctx, pageURL)
}

func (c *Controller) resolve(ctx context.Context, pageURL string, kind PageKind) (*Result, error) {
	settings, err := c.src.Settings(ctx)
	if err != nil {
		return nil, err
	}
	set, err := c.src.Channels(ctx)
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.wait)
	defer cancel()

	// Bounded appearance wait: refetch until the region of interest
	// exists or the window closes. Timing out is not an error; the
	// view simply stays unannotated.
	doc, found := WaitFor(waitCtx, c.retryIn, func(ctx context.Context) (*goquery.Document, bool) {
		d, err := c.fetch.Fetch(ctx, pageURL)
		if err != nil {
			return nil, false
		}
		switch kind {
		case KindChannel:
			if _, ok := c.ann.HeaderRegion(d); ok {
				return d, true
			}
		case KindWatch:
			if _, ok := c.ann.OwnerRegion(d); ok {
				return d, true
			}
		}
		return nil, false
	})
	if !found {
		log.Printf("annotate: region never appeared for %s (%s)", pageURL, kind)
		c.setState(StateNotFlagged)
		return &Result{State: StateNotFlagged, Kind: kind}, nil
	}

	var candidates []string
	switch kind {
	case KindChannel:
		candidates = c.ann.ChannelCandidates(doc, pageURL)
	case KindWatch:
		candidates = c.ann.OwnerCandidates(doc, pageURL)
	}

	matched, flagged := identity.AnyFlagged(candidates, set)

	// Watch pages always strip first; the title element is reused by
	// the SPA across navigations.
	if kind == KindWatch {
		c.ann.StripWarnings(doc)
	}

	if !flagged {
		c.ann.DecorateSidebar(doc, set)
		c.setState(StateNotFlagged)
		return &Result{State: StateNotFlagged, Kind: kind, Doc: doc}, nil
	}

	switch kind {
	case KindChannel:
		if settings.ShowChannelHeader {
			c.ann.DecorateHeader(doc)
		}
	case KindWatch:
		if settings.ShowVideoTitle {
			c.ann.DecorateTitle(doc)
		}
	}
	c.ann.DecorateSidebar(doc, set)

	c.setState(StateDecorated)
	return &Result{State: StateDecorated, Kind: kind, MatchedID: matched, Doc: doc}, nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Classify decides what kind of page a URL is.
func Classify(pageURL string) PageKind {
	u, err := url.Parse(pageURL)
	if err != nil {
		return KindOther
	}
	path := u.Path
	if strings.HasPrefix(path, "/watch") {
		return KindWatch
	}
	if _, ok := channelFromURL(pageURL); ok {
		return KindChannel
	}
	return KindOther
}

func channelFromURL(pageURL string) (string, bool) {
	return identity.ExtractChannelID(pageURL)
}

func videoID(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("v")
}
