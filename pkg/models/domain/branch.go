package domain

import (
	"fmt"
	"strings"
)

// BranchID identifies a library location as reported by the statistics upstream
type BranchID string

// Branch is one configured library location
type Branch struct {
	ID   BranchID
	Name string
}

// BranchCatalog is the static set of branches tracked by the reporter, in configured order
type BranchCatalog struct {
	branches []Branch
	byID     map[BranchID]Branch
}

func NewBranchCatalog(branches []Branch) (*BranchCatalog, error) {
	if len(branches) == 0 {
		return nil, fmt.Errorf("at least one branch must be configured")
	}

	catalog := &BranchCatalog{
		branches: make([]Branch, 0, len(branches)),
		byID:     make(map[BranchID]Branch, len(branches)),
	}
	for _, b := range branches {
		if strings.TrimSpace(string(b.ID)) == "" {
			return nil, fmt.Errorf("branch id cannot be empty")
		}
		if _, exists := catalog.byID[b.ID]; exists {
			return nil, fmt.Errorf("duplicate branch id: %s", b.ID)
		}
		catalog.byID[b.ID] = b
		catalog.branches = append(catalog.branches, b)
	}

	return catalog, nil
}

func (c *BranchCatalog) Contains(id BranchID) bool {
	_, ok := c.byID[id]
	return ok
}

// Name returns the configured display name, or an empty string for unknown ids
func (c *BranchCatalog) Name(id BranchID) string {
	return c.byID[id].Name
}

func (c *BranchCatalog) IDs() []BranchID {
	ids := make([]BranchID, 0, len(c.branches))
	for _, b := range c.branches {
		ids = append(ids, b.ID)
	}
	return ids
}

func (c *BranchCatalog) Branches() []Branch {
	return append([]Branch(nil), c.branches...)
}
