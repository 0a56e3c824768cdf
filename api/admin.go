package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jrsteele09/go-dochub-client/admin"
)

var _ admin.Service = (*AdminAPI)(nil)

// AdminAPI is the HTTP implementation of admin.Service. Every route needs
// an administrator's token.
type AdminAPI struct {
	client *Client
}

func NewAdminAPI(client *Client) *AdminAPI {
	return &AdminAPI{client: client}
}

func adminUserPath(id int64, suffix string) string {
	return fmt.Sprintf("/admin/users/%d%s", id, suffix)
}

func adminConfigPath(key string) string {
	return "/admin/configs/" + url.PathEscape(key)
}

func (a *AdminAPI) ListUsers(ctx context.Context, params admin.UserListParams) (*admin.UserPage, error) {
	page := &admin.UserPage{}
	if err := a.client.Get(ctx, "/admin/users", params.Values(), page); err != nil {
		return nil, err
	}
	return page, nil
}

func (a *AdminAPI) GetUser(ctx context.Context, id int64) (*admin.UserDetail, error) {
	detail := &admin.UserDetail{}
	if err := a.client.Get(ctx, adminUserPath(id, ""), nil, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

func (a *AdminAPI) UpdateUser(ctx context.Context, id int64, update admin.UserUpdate) error {
	return a.client.Put(ctx, adminUserPath(id, ""), update, nil)
}

func (a *AdminAPI) SetUserStatus(ctx context.Context, id int64, request admin.StatusRequest) error {
	return a.client.Put(ctx, adminUserPath(id, "/status"), request, nil)
}

func (a *AdminAPI) DeleteUser(ctx context.Context, id int64) error {
	return a.client.Delete(ctx, adminUserPath(id, ""), nil)
}

func (a *AdminAPI) ListConfigs(ctx context.Context, params admin.ConfigListParams) (*admin.ConfigPage, error) {
	page := &admin.ConfigPage{}
	if err := a.client.Get(ctx, "/admin/configs", params.Values(), page); err != nil {
		return nil, err
	}
	return page, nil
}

func (a *AdminAPI) GetConfig(ctx context.Context, key string) (*admin.SystemConfig, error) {
	c := &admin.SystemConfig{}
	if err := a.client.Get(ctx, adminConfigPath(key), nil, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (a *AdminAPI) CreateConfig(ctx context.Context, c admin.SystemConfig) error {
	return a.client.Post(ctx, "/admin/configs", c, nil)
}

func (a *AdminAPI) UpdateConfig(ctx context.Context, update admin.ConfigUpdate) error {
	return a.client.Put(ctx, "/admin/configs", update, nil)
}

func (a *AdminAPI) DeleteConfig(ctx context.Context, key string) error {
	return a.client.Delete(ctx, adminConfigPath(key), nil)
}
