package layout

// Placement is the extrinsic position of an item: the column it belongs to and
// its offset and width inside the container. A zero Placement is a valid
// position (first column, top-left corner), so presence is tracked by the
// cache rather than by the value.
type Placement struct {
	Column int     `json:"column" bson:"column"`
	Top    float64 `json:"top" bson:"top"`
	Left   float64 `json:"left" bson:"left"`
	Width  float64 `json:"width" bson:"width"`
}

// Equal reports whether p and o describe the same position within
// floating-point tolerance.
func (p Placement) Equal(o Placement) bool {
	return p.Column == o.Column &&
		nearlyEqual(p.Top, o.Top) &&
		nearlyEqual(p.Left, o.Left) &&
		nearlyEqual(p.Width, o.Width)
}

// PlacementCache remembers the last applied Placement of every item, keyed by
// the item's stable identifier. It stores identifiers and values only, so a
// record never keeps the item itself reachable; records of detached items are
// dropped with Forget or Retain.
//
// PlacementCache is not safe for concurrent use.
type PlacementCache struct {
	records map[string]Placement
}

// NewPlacementCache returns an empty cache.
func NewPlacementCache() *PlacementCache {
	return &PlacementCache{records: make(map[string]Placement)}
}

// Get returns the cached record for id. The boolean is false for items that
// have never been placed.
func (c *PlacementCache) Get(id string) (Placement, bool) {
	p, ok := c.records[id]
	return p, ok
}

// Set stores the record for id, replacing any previous one.
func (c *PlacementCache) Set(id string, p Placement) {
	c.records[id] = p
}

// Forget drops the record for id.
func (c *PlacementCache) Forget(id string) {
	delete(c.records, id)
}

// Retain drops every record whose id is not in keep and returns how many
// records were removed.
func (c *PlacementCache) Retain(keep map[string]struct{}) int {
	removed := 0
	for id := range c.records {
		if _, ok := keep[id]; !ok {
			delete(c.records, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached records.
func (c *PlacementCache) Len() int { return len(c.records) }

// Reset drops all records.
func (c *PlacementCache) Reset() {
	clear(c.records)
}
