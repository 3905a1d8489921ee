package annotate

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/orthrauku-dev/yt-sus/internal/identity"
	"github.com/orthrauku-dev/yt-sus/internal/model"
)

// Marker markup. Every node the annotator writes carries both the class
// and the sentinel attribute, so observation layers can recognize their
// own mutations and skip them instead of re-triggering on themselves.
const (
	WarningClass = "ytsus-ai-warning"
	WarnedClass  = "ytsus-ai-warned"
	SentinelAttr = "data-ytsus"

	warningText = "⚠ Likely AI content"
)

const initialDataMarker = "var ytInitialData = "

// Annotator applies and removes warning markup on parsed page
// documents. All operations are idempotent: re-applying never
// duplicates a warning node, and stripping reverses every class change.
type Annotator struct {
	probes Probes
}

func New(probes Probes) *Annotator {
	return &Annotator{probes: probes}
}

// findFirst returns the first selection matched by the probe list.
func findFirst(root *goquery.Selection, probes []Probe) (*goquery.Selection, bool) {
	for _, p := range probes {
		if sel := root.Find(p.Selector); sel.Length() > 0 {
			return sel, true
		}
	}
	return nil, false
}

// HeaderRegion locates the channel-header region, trying each known
// markup variant in order.
func (a *Annotator) HeaderRegion(doc *goquery.Document) (*goquery.Selection, bool) {
	return findFirst(doc.Selection, a.probes.HeaderRoot)
}

// OwnerRegion locates the watch-page owner-metadata region.
func (a *Annotator) OwnerRegion(doc *goquery.Document) (*goquery.Selection, bool) {
	return findFirst(doc.Selection, a.probes.OwnerRoot)
}

// ChannelCandidates gathers every channel identifier visible on a
// channel page: header links, page metadata and the page URL itself,
// deduped. Any one of them matching the flagged set is sufficient.
func (a *Annotator) ChannelCandidates(doc *goquery.Document, pageURL string) []string {
	var ids []string

	if header, ok := a.HeaderRegion(doc); ok {
		ids = append(ids, linkCandidates(header, a.probes.HeaderLinks)...)
	}
	ids = append(ids, metaCandidates(doc)...)
	if id, ok := identity.ExtractChannelID(pageURL); ok {
		ids = append(ids, id)
	}
	return identity.Dedupe(ids)
}

// OwnerCandidates gathers identifier candidates for the uploader of a
// watch page: owner links, the embedded page-data blob and the
// canonical metadata.
func (a *Annotator) OwnerCandidates(doc *goquery.Document, pageURL string) []string {
	var ids []string

	if owner, ok := a.OwnerRegion(doc); ok {
		ids = append(ids, linkCandidates(owner, a.probes.OwnerLinks)...)
	}
	ids = append(ids, initialDataCandidates(doc)...)
	ids = append(ids, metaCandidates(doc)...)
	if id, ok := identity.ExtractChannelID(pageURL); ok {
		ids = append(ids, id)
	}
	return identity.Dedupe(ids)
}

func linkCandidates(root *goquery.Selection, probes []Probe) []string {
	var ids []string
	for _, p := range probes {
		root.Find(p.Selector).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			if id, ok := identity.ExtractChannelID(href); ok {
				ids = append(ids, id)
			}
		})
	}
	return ids
}

// metaCandidates reads og:url and the canonical link.
func metaCandidates(doc *goquery.Document) []string {
	var ids []string
	doc.Find(`meta[property="og:url"]`).Each(func(_ int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok {
			if id, ok := identity.ExtractChannelID(content); ok {
				ids = append(ids, id)
			}
		}
	})
	doc.Find(`link[rel="canonical"]`).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			if id, ok := identity.ExtractChannelID(href); ok {
				ids = append(ids, id)
			}
		}
	})
	return ids
}

// initialDataCandidates pulls channel identifiers out of the embedded
// ytInitialData blob. The blob's shape churns constantly, so this walks
// the decoded JSON generically instead of binding to renderer paths.
func initialDataCandidates(doc *goquery.Document) []string {
	var ids []string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, initialDataMarker)
		if idx < 0 {
			return true
		}
		raw := extractJSONObject(text[idx+len(initialDataMarker):])
		if raw == "" {
			return true
		}
		var blob any
		if err := json.Unmarshal([]byte(raw), &blob); err != nil {
			return true
		}
		walkInitialData(blob, &ids, 0)
		return false
	})
	return ids
}

// walkInitialData collects channelId / ownerProfileUrl / canonicalBaseUrl
// values anywhere in the blob.
func walkInitialData(v any, ids *[]string, depth int) {
	if depth > 40 {
		return
	}
	switch t := v.(type) {
	case map[string]any:
		for key, val := range t {
			switch key {
			case "channelId", "externalId", "browseId":
				if s, ok := val.(string); ok && strings.HasPrefix(s, "UC") {
					*ids = append(*ids, s)
				}
			case "ownerProfileUrl", "canonicalBaseUrl", "vanityChannelUrl":
				if s, ok := val.(string); ok {
					if id, ok := identity.ExtractChannelID(s); ok {
						*ids = append(*ids, id)
					}
				}
			}
			walkInitialData(val, ids, depth+1)
		}
	case []any:
		for _, val := range t {
			walkInitialData(val, ids, depth+1)
		}
	}
}

// extractJSONObject returns the balanced {...} prefix of s, honoring
// string literals and escapes.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

// DecorateHeader marks the channel header. Returns false when no header
// region is present in the document.
func (a *Annotator) DecorateHeader(doc *goquery.Document) bool {
	header, ok := a.HeaderRegion(doc)
	if !ok {
		return false
	}
	decorate(header.First())
	return true
}

// DecorateTitle marks the watch-page video title. Any pre-existing
// warning is stripped first: the host SPA reuses the title element
// across navigations, so a leftover warning from the previous video
// would otherwise survive.
func (a *Annotator) DecorateTitle(doc *goquery.Document) bool {
	title, ok := findFirst(doc.Selection, a.probes.VideoTitle)
	if !ok {
		return false
	}
	el := title.First()
	stripFrom(el)
	decorate(el)
	return true
}

// DecorateSidebar marks sidebar items whose rendered channel name
// matches a flagged entry. Some host layouts expose only the name, not
// a link, hence the loose name comparison. Returns the number of items
// marked.
func (a *Annotator) DecorateSidebar(doc *goquery.Document, set model.FlaggedSet) int {
	marked := 0
	for _, itemProbe := range a.probes.SidebarItems {
		doc.Find(itemProbe.Selector).Each(func(_ int, item *goquery.Selection) {
			name, ok := findFirst(item, a.probes.SidebarName)
			if !ok {
				return
			}
			if !identity.NameMatches(strings.TrimSpace(name.First().Text()), set) {
				return
			}
			decorate(item)
			marked++
		})
	}
	return marked
}

// StripWarnings removes every warning node in the document and reverses
// the class changes, restoring the pre-annotation markup.
func (a *Annotator) StripWarnings(doc *goquery.Document) {
	stripFrom(doc.Selection)
}

// decorate applies the warning markup to one element, idempotently: an
// element already carrying the sentinel is left untouched.
func decorate(el *goquery.Selection) {
	if el.Length() == 0 {
		return
	}
	if el.HasClass(WarnedClass) {
		return
	}
	el.AddClass(WarnedClass)
	el.PrependNodes(warningNode())
}

func stripFrom(root *goquery.Selection) {
	root.Find("." + WarningClass).Remove()
	root.Find("." + WarnedClass).RemoveClass(WarnedClass)
	if root.HasClass(WarnedClass) {
		root.RemoveClass(WarnedClass)
	}
}

// warningNode builds the inserted marker element.
func warningNode() *html.Node {
	span := &html.Node{
		Type: html.ElementNode,
		Data: "span",
		Attr: []html.Attribute{
			{Key: "class", Val: WarningClass},
			{Key: SentinelAttr, Val: "1"},
		},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: warningText})
	return span
}

// IsOwnMutation reports whether a node belongs to annotator-written
// markup; observation layers consult this before reacting to a
// mutation record, preventing self-triggered loops.
func IsOwnMutation(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		for _, attr := range n.Attr {
			if attr.Key == SentinelAttr {
				return true
			}
			if attr.Key == "class" && strings.Contains(attr.Val, WarningClass) {
				return true
			}
		}
	}
	return false
}
