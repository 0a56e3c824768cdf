package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jrsteele09/go-dochub-client/categories"
)

var _ categories.Service = (*CategoriesAPI)(nil)

// CategoriesAPI is the HTTP implementation of categories.Service. Reads are
// open to every user; writes go through the admin routes.
type CategoriesAPI struct {
	client *Client
}

func NewCategoriesAPI(client *Client) *CategoriesAPI {
	return &CategoriesAPI{client: client}
}

func adminCategoryPath(id int64, suffix string) string {
	return fmt.Sprintf("/admin/material-categories/%d%s", id, suffix)
}

func (a *CategoriesAPI) List(ctx context.Context, activeOnly bool) ([]categories.Category, error) {
	query := url.Values{}
	if activeOnly {
		query.Set("active_only", "true")
	}
	var list []categories.Category
	if err := a.client.Get(ctx, "/material-categories", query, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (a *CategoriesAPI) Create(ctx context.Context, request categories.Request) (*categories.Category, error) {
	c := &categories.Category{}
	if err := a.client.Post(ctx, "/admin/material-categories", request, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (a *CategoriesAPI) Update(ctx context.Context, id int64, request categories.Request) (*categories.Category, error) {
	c := &categories.Category{}
	if err := a.client.Put(ctx, adminCategoryPath(id, ""), request, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (a *CategoriesAPI) Delete(ctx context.Context, id int64) error {
	return a.client.Delete(ctx, adminCategoryPath(id, ""), nil)
}

func (a *CategoriesAPI) Toggle(ctx context.Context, id int64) (*categories.Category, error) {
	c := &categories.Category{}
	if err := a.client.Post(ctx, adminCategoryPath(id, "/toggle"), nil, c); err != nil {
		return nil, err
	}
	return c, nil
}
