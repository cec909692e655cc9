package handlers

import (
	"context"

	"github.com/flatdoc/flatdoc/internal/docstore"
	"github.com/flatdoc/flatdoc/internal/errors"
)

// ItemHandler handles item CRUD requests.
type ItemHandler struct {
	store *docstore.Store
}

// NewItemHandler creates a new item handler.
func NewItemHandler(store *docstore.Store) *ItemHandler {
	return &ItemHandler{store: store}
}

// CreateItemRequest is a request to create an item.
type CreateItemRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	InStock     *bool   `json:"inStock"`
}

// UpdateItemRequest is a partial item update. Absent fields are left
// untouched.
type UpdateItemRequest struct {
	ID          string   `json:"-" path:"id"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Image       *string  `json:"image"`
	Category    *string  `json:"category"`
	InStock     *bool    `json:"inStock"`
}

// GetItemRequest identifies an item by id.
type GetItemRequest struct {
	ID string `path:"id"`
}

// ListItemsRequest filters and paginates the item collection.
type ListItemsRequest struct {
	Category string `query:"category"`
	InStock  string `query:"inStock"`
	Limit    int    `query:"limit"`
	Offset   int    `query:"offset"`
}

// DeleteItemResponse acknowledges a deletion.
type DeleteItemResponse struct {
	Deleted bool `json:"deleted"`
}

// CreateItem creates a new item owned by the authenticated user.
func (h *ItemHandler) CreateItem(ctx context.Context, req CreateItemRequest) (*docstore.Item, error) {
	in := docstore.ItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		InStock:     req.InStock,
	}
	if user := UserFrom(ctx); user != nil {
		in.CreatedBy = user.ID
	}
	return h.store.CreateItem(ctx, in)
}

// GetItem returns a single item by id.
func (h *ItemHandler) GetItem(ctx context.Context, req GetItemRequest) (*docstore.Item, error) {
	item, err := h.store.GetItemByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.NotFound("item")
	}
	return item, nil
}

// ListItems returns items matching the filter, paginated.
func (h *ItemHandler) ListItems(ctx context.Context, req ListItemsRequest) (*docstore.ItemPage, error) {
	f := docstore.ItemFilter{
		Category: req.Category,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	switch req.InStock {
	case "":
	case "true":
		v := true
		f.InStock = &v
	case "false":
		v := false
		f.InStock = &v
	default:
		return nil, errors.BadRequest("inStock must be true or false")
	}
	return h.store.GetAllItems(ctx, f)
}

// UpdateItem applies a partial update to an item.
func (h *ItemHandler) UpdateItem(ctx context.Context, req UpdateItemRequest) (*docstore.Item, error) {
	patch := docstore.ItemPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		InStock:     req.InStock,
	}
	return h.store.UpdateItem(ctx, req.ID, patch)
}

// DeleteItem removes an item by id.
func (h *ItemHandler) DeleteItem(ctx context.Context, req GetItemRequest) (*DeleteItemResponse, error) {
	if err := h.store.DeleteItem(ctx, req.ID); err != nil {
		return nil, err
	}
	return &DeleteItemResponse{Deleted: true}, nil
}
