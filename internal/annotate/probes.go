package annotate

// Probe is one selector attempt. Host markup shifts across releases and
// experiments, so every DOM region is located through an ordered probe
// list rather than a single selector; the first probe that matches
// wins.
type Probe struct {
	Name     string
	Selector string
}

// Probes groups the probe lists per page region. The lists are plain
// data so a markup change costs a config edit, not a logic change.
type Probes struct {
	HeaderRoot   []Probe
	HeaderLinks  []Probe
	OwnerRoot    []Probe
	OwnerLinks   []Probe
	VideoTitle   []Probe
	SidebarItems []Probe
	SidebarName  []Probe
}

// DefaultProbes covers the host markup variants observed so far, newest
// first.
func DefaultProbes() Probes {
	return Probes{
		HeaderRoot: []Probe{
			{"page-header", "yt-page-header-renderer"},
			{"tabbed-header", "ytd-c4-tabbed-header-renderer"},
			{"channel-header", "#channel-header"},
			{"header-fallback", "#header"},
		},
		HeaderLinks: []Probe{
			{"header-anchors", "a[href]"},
		},
		OwnerRoot: []Probe{
			{"video-owner", "ytd-video-owner-renderer"},
			{"owner-container", "#owner"},
			{"upload-info", "#upload-info"},
		},
		OwnerLinks: []Probe{
			{"owner-anchors", "a[href]"},
		},
		VideoTitle: []Probe{
			{"watch-metadata", "h1.ytd-watch-metadata yt-formatted-string"},
			{"watch-metadata-plain", "ytd-watch-metadata h1"},
			{"legacy-title", "h1.title"},
			{"title-fallback", "#title h1"},
		},
		SidebarItems: []Probe{
			{"compact-video", "ytd-compact-video-renderer"},
			{"lockup", "yt-lockup-view-model"},
		},
		SidebarName: []Probe{
			{"channel-name", "ytd-channel-name #text"},
			{"byline", ".yt-lockup-metadata-view-model-wiz__metadata-text"},
			{"byline-legacy", "#channel-name"},
		},
	}
}
