// Package admin holds the administrator's view of accounts and system
// settings: paged user listings, account bans, and configuration entries.
package admin

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-dochub-client/users"
)

const DefaultPageSize = 20

type UserListParams struct {
	Page      int
	Size      int
	Keyword   string
	Role      users.RoleType
	Status    users.StatusType
	Major     string
	Class     string
	SortBy    string
	SortOrder string // asc or desc
}

// Values encodes the params with the service's query names. Zero fields are
// left out.
func (p UserListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Size > 0 {
		v.Set("page_size", strconv.Itoa(p.Size))
	}
	v.Set("keyword", p.Keyword)
	v.Set("role", string(p.Role))
	v.Set("status", string(p.Status))
	v.Set("major", p.Major)
	v.Set("class", p.Class)
	v.Set("sort_by", p.SortBy)
	v.Set("sort_order", p.SortOrder)
	return v
}

type UserPage struct {
	Items      []users.User
	Total      int
	Page       int
	Size       int
	TotalPages int
}

func (p *UserPage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Items      []users.User `json:"items"`
		Pagination struct {
			Page       int `json:"page"`
			PageSize   int `json:"page_size"`
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Items = raw.Items
	if p.Items == nil {
		p.Items = []users.User{}
	}
	p.Total = raw.Pagination.Total
	p.Page = raw.Pagination.Page
	p.Size = raw.Pagination.PageSize
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	p.TotalPages = raw.Pagination.TotalPages
	if p.TotalPages == 0 {
		p.TotalPages = (p.Total + p.Size - 1) / p.Size
	}
	return nil
}

type Activity struct {
	Action      string `json:"action"`
	Resource    string `json:"resource"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type UserDetail struct {
	User           users.User `json:"user"`
	RecentActivity []Activity `json:"recent_activity,omitempty"`
	DownloadTotal  int        `json:"download_total"`
	UploadTotal    int        `json:"upload_total"`
	FavoriteTotal  int        `json:"favorite_total"`
}

// UserUpdate carries the fields an administrator may change. Empty fields
// are left as they are.
type UserUpdate struct {
	Email    string         `json:"email,omitempty"`
	RealName string         `json:"real_name,omitempty"`
	Role     users.RoleType `json:"role,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Major    string         `json:"major,omitempty"`
	Class    string         `json:"class,omitempty"`
}

type StatusRequest struct {
	Status users.StatusType `json:"status"`
	Reason string           `json:"reason,omitempty"`
}

type SystemConfig struct {
	ID          int64  `json:"id"`
	Key         string `json:"config_key"`
	Value       string `json:"config_value"`
	Description string `json:"description"`
	Category    string `json:"category"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type ConfigListParams struct {
	Page     int
	Size     int
	Category string
	Keyword  string
}

func (p ConfigListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Size > 0 {
		v.Set("page_size", strconv.Itoa(p.Size))
	}
	v.Set("category", p.Category)
	v.Set("keyword", p.Keyword)
	return v
}

type ConfigPage struct {
	Items []SystemConfig `json:"list"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"page_size"`
}

type ConfigUpdate struct {
	Key   string `json:"config_key"`
	Value string `json:"config_value"`
}

// Service is the remote side of the admin store.
type Service interface {
	ListUsers(ctx context.Context, params UserListParams) (*UserPage, error)
	GetUser(ctx context.Context, id int64) (*UserDetail, error)
	UpdateUser(ctx context.Context, id int64, update UserUpdate) error
	SetUserStatus(ctx context.Context, id int64, request StatusRequest) error
	DeleteUser(ctx context.Context, id int64) error

	ListConfigs(ctx context.Context, params ConfigListParams) (*ConfigPage, error)
	GetConfig(ctx context.Context, key string) (*SystemConfig, error)
	CreateConfig(ctx context.Context, config SystemConfig) error
	UpdateConfig(ctx context.Context, update ConfigUpdate) error
	DeleteConfig(ctx context.Context, key string) error
}
