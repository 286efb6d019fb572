package models

// GroupType is the detection tier that produced a group.
type GroupType string

const (
	// GroupExactTitle groups documents whose trimmed, lowercased titles are equal.
	GroupExactTitle GroupType = "exact_title"
	// GroupExactContent groups documents with the same content fingerprint.
	GroupExactContent GroupType = "exact_content"
	// GroupSimilarContent is a pair of documents at or above the similarity threshold.
	GroupSimilarContent GroupType = "similar_content"
)

// Priority returns the ranking precedence of the type; lower sorts first.
func (t GroupType) Priority() int {
	switch t {
	case GroupExactContent:
		return 1
	case GroupExactTitle:
		return 2
	case GroupSimilarContent:
		return 3
	default:
		return 4
	}
}

// Valid reports whether t is one of the known group types.
func (t GroupType) Valid() bool {
	return t.Priority() < 4
}

// DuplicateGroup is a set of two or more related documents.
// Primary is the first member and only serves as a default selection for reviewers.
type DuplicateGroup struct {
	ID         string      `json:"id"`
	Type       GroupType   `json:"type"`
	Similarity int         `json:"similarity"`
	Members    []*Document `json:"members"`
	Primary    *Document   `json:"primary"`
}

// Pairs returns the keys of every unordered member pair in the group.
func (g *DuplicateGroup) Pairs() []PairKey {
	n := len(g.Members)
	if n < 2 {
		return nil
	}
	keys := make([]PairKey, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			keys = append(keys, NewPairKey(g.Members[i].Path, g.Members[j].Path))
		}
	}
	return keys
}

// Member returns the member with the given path, or nil.
func (g *DuplicateGroup) Member(path string) *Document {
	for _, m := range g.Members {
		if m.Path == path {
			return m
		}
	}
	return nil
}

// Clone returns a copy of the group with its own member slice.
// Documents are shared; they are immutable snapshots.
func (g *DuplicateGroup) Clone() *DuplicateGroup {
	c := *g
	c.Members = append([]*Document(nil), g.Members...)
	return &c
}
