// Package categories keeps the configurable list of material categories and
// the subset that is currently active.
package categories

import "context"

type Category struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	NameZh      string `json:"name_zh,omitempty"`
	NameEn      string `json:"name_en,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// DisplayName prefers the localized name, then the name, then the code.
func (c *Category) DisplayName() string {
	switch {
	case c.NameZh != "":
		return c.NameZh
	case c.Name != "":
		return c.Name
	}
	return c.Code
}

type Request struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	SortOrder   int    `json:"sort_order,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

type Service interface {
	List(ctx context.Context, activeOnly bool) ([]Category, error)
	Create(ctx context.Context, request Request) (*Category, error)
	Update(ctx context.Context, id int64, request Request) (*Category, error)
	Delete(ctx context.Context, id int64) error
	Toggle(ctx context.Context, id int64) (*Category, error)
}
