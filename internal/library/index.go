package library

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mmcdole/longbox/internal/domain"
)

// Unnamed is the group for comics with no value for an attribute.
const Unnamed = "(unnamed)"

// Attribute selects the comic field an index groups by.
type Attribute int

const (
	AttributePublisher Attribute = iota
	AttributeSeries
	AttributeCharacters
	AttributeTeams
	AttributeLocations
	AttributeStories
)

// Attributes lists every indexable attribute in display order.
var Attributes = []Attribute{
	AttributePublisher,
	AttributeSeries,
	AttributeCharacters,
	AttributeTeams,
	AttributeLocations,
	AttributeStories,
}

func (a Attribute) String() string {
	switch a {
	case AttributePublisher:
		return "publishers"
	case AttributeSeries:
		return "series"
	case AttributeCharacters:
		return "characters"
	case AttributeTeams:
		return "teams"
	case AttributeLocations:
		return "locations"
	case AttributeStories:
		return "stories"
	default:
		return fmt.Sprintf("attribute(%d)", int(a))
	}
}

// MultiValued reports whether one comic can belong to several groups.
func (a Attribute) MultiValued() bool {
	return a >= AttributeCharacters && a <= AttributeStories
}

// ParseAttribute maps a config or command-line name to an Attribute.
func ParseAttribute(name string) (Attribute, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, a := range Attributes {
		if a.String() == name || strings.TrimSuffix(a.String(), "s") == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown index attribute %q", name)
}

// Group is one value of an attribute and the comics carrying it.
type Group struct {
	Value   string
	Members []int64 // comic IDs, ascending
}

// Count returns the number of comics in the group.
func (g Group) Count() int {
	return len(g.Members)
}

// Index groups every comic in c by attr.
//
// Single-valued attributes place each comic in exactly one group. Multi-valued
// attributes place it in one group per distinct value. Comics without a value
// land in the Unnamed group. Groups are ordered by value ignoring case, with
// Unnamed last, so the same collection always yields the same result.
func Index(c Collection, attr Attribute) []Group {
	members := make(map[string][]int64)
	c.Each(func(comic domain.Comic) bool {
		for _, v := range attributeValues(comic, attr) {
			members[v] = append(members[v], comic.ID)
		}
		return true
	})

	groups := make([]Group, 0, len(members))
	for value, ids := range members {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		groups = append(groups, Group{Value: value, Members: ids})
	}
	sort.Slice(groups, func(i, j int) bool {
		return lessGroupValue(groups[i].Value, groups[j].Value)
	})
	return groups
}

// Indexes holds one grouping per attribute for a single collection snapshot.
type Indexes struct {
	groups map[Attribute][]Group
}

// BuildIndexes computes the grouping for every attribute.
func BuildIndexes(c Collection) Indexes {
	idx := Indexes{groups: make(map[Attribute][]Group, len(Attributes))}
	for _, attr := range Attributes {
		idx.groups[attr] = Index(c, attr)
	}
	return idx
}

// Groups returns the grouping for attr.
func (i Indexes) Groups(attr Attribute) []Group {
	return i.groups[attr]
}

// Find returns the group with the given value.
func (i Indexes) Find(attr Attribute, value string) (Group, bool) {
	for _, g := range i.groups[attr] {
		if g.Value == value {
			return g, true
		}
	}
	return Group{}, false
}

func attributeValues(comic domain.Comic, attr Attribute) []string {
	switch attr {
	case AttributePublisher:
		return []string{single(comic.Publisher)}
	case AttributeSeries:
		return []string{single(comic.Series)}
	case AttributeCharacters:
		return distinct(comic.Characters)
	case AttributeTeams:
		return distinct(comic.Teams)
	case AttributeLocations:
		return distinct(comic.Locations)
	case AttributeStories:
		return distinct(comic.Stories)
	default:
		return []string{Unnamed}
	}
}

func single(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return Unnamed
	}
	return v
}

func distinct(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return []string{Unnamed}
	}
	return out
}

func lessGroupValue(a, b string) bool {
	if a == Unnamed || b == Unnamed {
		return b == Unnamed && a != Unnamed
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
