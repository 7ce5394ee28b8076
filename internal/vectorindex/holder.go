package vectorindex

import "sync/atomic"

// Holder is a lazily-loaded, atomically-swappable pointer to the current
// Vectorizer artifact, matching spec §9's "replace global mutable state
// with an explicit lazy-initialized singleton; reload is an atomic
// pointer swap" redesign note.
type Holder struct {
	path    string
	current atomic.Pointer[Vectorizer]
}

// NewHolder returns a Holder that loads from path on first Current() call
// and whenever Reload is invoked.
func NewHolder(path string) *Holder {
	return &Holder{path: path}
}

// Current returns the loaded Vectorizer, loading it from disk on first
// use. Returns a KindCorrupted error if no artifact has been trained yet.
func (h *Holder) Current() (*Vectorizer, error) {
	if v := h.current.Load(); v != nil {
		return v, nil
	}
	return h.Reload()
}

// Reload reads the artifact from disk and atomically swaps it in,
// returning the freshly loaded Vectorizer.
func (h *Holder) Reload() (*Vectorizer, error) {
	v, err := Load(h.path)
	if err != nil {
		return nil, err
	}
	h.current.Store(v)
	return v, nil
}
