// Package lean implements the static press-source lean taxonomy (C5):
// mapping a source name or URL host to a political lean, and deriving the
// lean of an article when the stored row does not carry one.
package lean

import (
	"strings"

	"catchup-feed/internal/domain/entity"
)

// SourceInfo is one entry of the static taxonomy: a press name, its lean,
// and the RSS feed it is crawled from.
type SourceInfo struct {
	Name    string
	Lean    entity.Lean
	FeedURL string
	// HostSubstrings are URL host fragments that identify this source when
	// an article's stored source/lean fields are empty.
	HostSubstrings []string
}

// Table is the static name->lean and host->name taxonomy, loaded once at
// startup from config/sources.yaml.
type Table struct {
	byName map[string]SourceInfo
	hosts  []hostEntry
}

type hostEntry struct {
	substr string
	info   SourceInfo
}

// NewTable builds a Table from a slice of SourceInfo.
func NewTable(sources []SourceInfo) *Table {
	t := &Table{byName: make(map[string]SourceInfo, len(sources))}
	for _, s := range sources {
		t.byName[s.Name] = s
		for _, h := range s.HostSubstrings {
			t.hosts = append(t.hosts, hostEntry{substr: strings.ToLower(h), info: s})
		}
	}
	return t
}

// LeanOf returns the lean for a press name, ok=false if unknown.
func (t *Table) LeanOf(name string) (entity.Lean, bool) {
	s, ok := t.byName[name]
	if !ok {
		return entity.LeanUnknown, false
	}
	return s.Lean, true
}

// SourceByHost returns the SourceInfo whose host substring appears in
// host, ok=false if none match.
func (t *Table) SourceByHost(host string) (SourceInfo, bool) {
	host = strings.ToLower(host)
	for _, h := range t.hosts {
		if strings.Contains(host, h.substr) {
			return h.info, true
		}
	}
	return SourceInfo{}, false
}

// Sources returns all configured SourceInfo entries, used by the
// ingestion orchestrator to build its feed crawl list.
func (t *Table) Sources() []SourceInfo {
	out := make([]SourceInfo, 0, len(t.byName))
	for _, s := range t.byName {
		out = append(out, s)
	}
	return out
}

// DeriveLean returns the article's lean: the stored lean if known, else a
// lean derived from host substring matching against link, else
// entity.LeanUnknown.
func (t *Table) DeriveLean(storedLean entity.Lean, source string, link string) entity.Lean {
	if storedLean != "" && storedLean != entity.LeanUnknown {
		return storedLean
	}
	if l, ok := t.LeanOf(source); ok {
		return l
	}
	if link == "" {
		return entity.LeanUnknown
	}
	host := hostOf(link)
	if info, ok := t.SourceByHost(host); ok {
		return info.Lean
	}
	return entity.LeanUnknown
}

func hostOf(link string) string {
	link = strings.TrimPrefix(link, "https://")
	link = strings.TrimPrefix(link, "http://")
	if i := strings.IndexAny(link, "/?#"); i >= 0 {
		link = link[:i]
	}
	return link
}
