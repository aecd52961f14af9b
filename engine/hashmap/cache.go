package hashmap

import (
	"strings"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/npillmayer/glifbez/core"
)

// Entry is the cache record of a glyph.
type Entry struct {
	Hash    string   // fingerprint of the glyph's source outline
	History []string // tools which processed the glyph since Hash was recorded
}

// Processed is true if tool is in the entry's history.
func (e Entry) Processed(tool string) bool {
	for _, t := range e.History {
		if t == tool {
			return true
		}
	}
	return false
}

func (e Entry) clone() Entry {
	return Entry{Hash: e.Hash, History: append([]string(nil), e.History...)}
}

// Policy configures how a tool uses the cache.
type Policy struct {
	// Enabled switches the cache on. A disabled cache never skips a glyph.
	Enabled bool
	// UseProcessedLayer is set for tools which read glyphs from the processed
	// layer if present, and from the source layer otherwise. If unset, the
	// tool always reads the source layer and output from earlier runs in
	// the processed layer is stale.
	UseProcessedLayer bool
	// RequiredTools lists tools whose work would be lost if a glyph edited
	// in the source layer were re-processed.
	RequiredTools []string
	// Force processes every glyph, even if it is unchanged.
	Force bool
}

// Decision is the outcome of a cache lookup for a glyph.
type Decision struct {
	Skip            bool  // the tool should not process the glyph
	DeleteProcessed bool  // the glyph in the processed layer is stale
	Err             error // set if the glyph is skipped because of an edit conflict
}

// Cache is the in-memory processed-glyphs hash map. It is safe for
// concurrent use; concurrent updates of the same glyph are serialized but
// their outcome depends on their order.
type Cache struct {
	sync.Mutex
	policy  Policy
	entries *treemap.Map // glyph name → Entry
	changed bool
}

// New creates an empty cache.
func New(policy Policy) *Cache {
	return &Cache{
		policy:  policy,
		entries: treemap.NewWithStringComparator(),
	}
}

// Policy returns the cache's policy.
func (c *Cache) Policy() Policy {
	return c.policy
}

func (c *Cache) entry(glyph string) (Entry, bool) {
	v, found := c.entries.Get(glyph)
	if !found {
		return Entry{}, false
	}
	return v.(Entry), true
}

func (c *Cache) put(glyph string, e Entry) {
	c.entries.Put(glyph, e)
	c.changed = true
}

// CheckSkip decides whether tool has to process a glyph, given the
// fingerprint of the glyph's current source outline. It updates the
// glyph's entry to reflect that the tool is about to process it.
//
// If the source has not changed and the tool already processed the glyph,
// the glyph is skipped. If the source has changed, the entry is reset to the
// new fingerprint and the processed layer's version of the glyph is stale;
// for a tool using the processed layer this is an error if a required tool
// already processed the glyph.
func (c *Cache) CheckSkip(glyph, newHash, tool string) Decision {
	if !c.policy.Enabled {
		return Decision{}
	}
	c.Lock()
	defer c.Unlock()
	e, found := c.entry(glyph)
	var d Decision
	if found && e.Hash == newHash {
		if e.Processed(tool) && !c.policy.Force {
			tracer().Debugf("hashmap: glyph '%s' unchanged since '%s' processed it", glyph, tool)
			d.Skip = true
			return d
		}
		if !c.policy.UseProcessedLayer {
			c.put(glyph, Entry{Hash: newHash, History: []string{tool}})
			d.DeleteProcessed = true
		} else if !e.Processed(tool) {
			e = e.clone()
			e.History = append(e.History, tool)
			c.put(glyph, e)
		}
		return d
	}
	if c.policy.UseProcessedLayer && len(e.History) > 0 {
		var ran []string
		for _, req := range c.policy.RequiredTools {
			if e.Processed(req) {
				ran = append(ran, req)
			}
		}
		if len(ran) > 0 {
			tracer().Errorf("glyph '%s' has been edited after %v processed it", glyph, ran)
			d.Skip = true
			d.Err = core.ForGlyph(glyph, core.Error(core.EREQUIRED,
				"glyph '%s' has been edited. You must first run '%s' before running '%s'. Skipping.",
				glyph, strings.Join(c.policy.RequiredTools, ", "), tool))
		}
	}
	c.put(glyph, Entry{Hash: newHash, History: []string{tool}})
	d.DeleteProcessed = true
	return d
}

// UpdateEntry records that tool has processed a glyph. If the tool reads
// from the source layer only and has changed the glyph, the history is reset
// to the tool; otherwise the tool is added to the history.
// A glyph without an entry is left alone.
func (c *Cache) UpdateEntry(glyph, tool string, changed bool) {
	if !c.policy.Enabled {
		return
	}
	c.Lock()
	defer c.Unlock()
	e, found := c.entry(glyph)
	if !found {
		tracer().Infof("hashmap: no entry for glyph '%s'", glyph)
		return
	}
	if !c.policy.UseProcessedLayer && changed {
		c.put(glyph, Entry{Hash: e.Hash, History: []string{tool}})
		return
	}
	if !e.Processed(tool) {
		e = e.clone()
		e.History = append(e.History, tool)
		c.put(glyph, e)
	}
	c.changed = true
}

// Entry returns a copy of a glyph's entry.
func (c *Cache) Entry(glyph string) (Entry, bool) {
	c.Lock()
	defer c.Unlock()
	e, found := c.entry(glyph)
	return e.clone(), found
}

// Set replaces the entry of a glyph.
func (c *Cache) Set(glyph string, e Entry) {
	c.Lock()
	defer c.Unlock()
	c.put(glyph, e.clone())
}

// Len returns the number of glyph entries.
func (c *Cache) Len() int {
	c.Lock()
	defer c.Unlock()
	return c.entries.Size()
}

// Names returns the names of all glyphs with an entry, sorted.
func (c *Cache) Names() []string {
	c.Lock()
	defer c.Unlock()
	names := make([]string, 0, c.entries.Size())
	for _, k := range c.entries.Keys() {
		names = append(names, k.(string))
	}
	return names
}

// Changed is true if the cache has been modified since it was loaded or
// saved.
func (c *Cache) Changed() bool {
	c.Lock()
	defer c.Unlock()
	return c.changed
}
