package docstore

import (
	"context"
	"strings"
)

// ItemInput carries the fields accepted when creating an item.
type ItemInput struct {
	Name        string
	Description string
	Price       float64
	Image       string
	Category    string
	CreatedBy   string
	// InStock defaults to true when nil.
	InStock *bool
}

// ItemPatch carries a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Image       *string
	Category    *string
	InStock     *bool
}

// ItemFilter selects and paginates items. Filters apply first, Total is
// counted against the filtered set, then Limit/Offset paginate.
type ItemFilter struct {
	Category string
	InStock  *bool
	// Limit of 0 means no limit.
	Limit  int
	Offset int
}

// ItemPage is a filtered, paginated slice of the item collection.
type ItemPage struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
}

// CreateItem sanitizes, validates, and appends a new item. The price is
// validated before rounding, so an input with more than 2 decimal
// places is rejected rather than silently normalized.
func (s *Store) CreateItem(ctx context.Context, in ItemInput) (*Item, error) {
	now := s.now()
	item := Item{
		ID:          s.newID(now),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Image:       strings.TrimSpace(in.Image),
		Category:    strings.TrimSpace(in.Category),
		InStock:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   strings.TrimSpace(in.CreatedBy),
	}
	if in.InStock != nil {
		item.InStock = *in.InStock
	}
	if res := ValidateItem(&item); !res.Valid {
		return nil, ValidationFailed(res.Errors)
	}
	item.Price = roundPrice(item.Price)
	err := s.update(ctx, func(doc *Document) (bool, error) {
		doc.Items = append(doc.Items, item)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemByID returns the item, or nil when the id is absent.
func (s *Store) GetItemByID(ctx context.Context, id string) (*Item, error) {
	var found *Item
	err := s.view(ctx, func(doc *Document) error {
		for i := range doc.Items {
			if doc.Items[i].ID == id {
				it := doc.Items[i]
				found = &it
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// GetAllItems returns the filtered and paginated item collection along
// with the total count of the filtered set.
func (s *Store) GetAllItems(ctx context.Context, f ItemFilter) (*ItemPage, error) {
	page := &ItemPage{Items: []Item{}}
	err := s.view(ctx, func(doc *Document) error {
		filtered := make([]Item, 0, len(doc.Items))
		for _, it := range doc.Items {
			if f.Category != "" && it.Category != f.Category {
				continue
			}
			if f.InStock != nil && it.InStock != *f.InStock {
				continue
			}
			filtered = append(filtered, it)
		}
		page.Total = len(filtered)
		start := f.Offset
		if start < 0 {
			start = 0
		}
		if start > len(filtered) {
			start = len(filtered)
		}
		end := len(filtered)
		if f.Limit > 0 && start+f.Limit < end {
			end = start + f.Limit
		}
		page.Items = filtered[start:end]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// UpdateItem merges the patch over the stored item, revalidates the
// merged result in full so a partial update cannot produce an item that
// would have been rejected at creation time, and persists it.
func (s *Store) UpdateItem(ctx context.Context, id string, patch ItemPatch) (*Item, error) {
	var updated *Item
	err := s.update(ctx, func(doc *Document) (bool, error) {
		idx := -1
		for i := range doc.Items {
			if doc.Items[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return false, NotFound("item", id)
		}
		merged := doc.Items[idx]
		if patch.Name != nil {
			merged.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			merged.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Price != nil {
			merged.Price = *patch.Price
		}
		if patch.Image != nil {
			merged.Image = strings.TrimSpace(*patch.Image)
		}
		if patch.Category != nil {
			merged.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.InStock != nil {
			merged.InStock = *patch.InStock
		}
		merged.UpdatedAt = s.now()
		if res := ValidateItem(&merged); !res.Valid {
			return false, ValidationFailed(res.Errors)
		}
		merged.Price = roundPrice(merged.Price)
		doc.Items[idx] = merged
		updated = &merged
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes the item permanently and immediately. Fails with
// NotFound when the id is absent.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return s.update(ctx, func(doc *Document) (bool, error) {
		for i := range doc.Items {
			if doc.Items[i].ID == id {
				doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
				return true, nil
			}
		}
		return false, NotFound("item", id)
	})
}
