// Package materials keeps the client-side view of shared study materials:
// the current page of a listing, the material being viewed, and favorite
// bookkeeping.
package materials

import (
	"context"
	"encoding/json"
	"net/url"
	"slices"
	"strconv"

	"github.com/jrsteele09/go-dochub-client/users"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusDeleted  Status = "deleted"
)

type ReportReason string

const (
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonCopyright     ReportReason = "copyright"
	ReasonWrongCategory ReportReason = "wrong_category"
	ReasonLowQuality    ReportReason = "low_quality"
	ReasonOther         ReportReason = "other"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReasonInappropriate, ReasonCopyright, ReasonWrongCategory, ReasonLowQuality, ReasonOther:
		return true
	}
	return false
}

type Material struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Category        string      `json:"category"`
	Status          Status      `json:"status"`
	CourseName      string      `json:"course_name"`
	FileName        string      `json:"file_name"`
	FileSize        int64       `json:"file_size"`
	FileKey         string      `json:"file_key"`
	MimeType        string      `json:"mime_type"`
	DownloadCount   int         `json:"download_count"`
	FavoriteCount   int         `json:"favorite_count"`
	ViewCount       int         `json:"view_count"`
	UploaderID      int64       `json:"uploader_id"`
	Tags            []string    `json:"tags,omitempty"`
	ReviewerID      *int64      `json:"reviewer_id,omitempty"`
	ReviewedAt      string      `json:"reviewed_at,omitempty"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	CreatedAt       string      `json:"created_at"`
	UpdatedAt       string      `json:"updated_at"`
	Uploader        *users.User `json:"uploader,omitempty"`
	IsFavorited     bool        `json:"is_favorited,omitempty"`
	DownloadedAt    string      `json:"downloaded_at,omitempty"`
}

func (m *Material) Clone() *Material {
	if m == nil {
		return nil
	}
	c := *m
	c.Tags = slices.Clone(m.Tags)
	c.Uploader = m.Uploader.Clone()
	if m.ReviewerID != nil {
		id := *m.ReviewerID
		c.ReviewerID = &id
	}
	return &c
}

// ListParams filters a listing. Zero fields are left out of the query.
type ListParams struct {
	Page         int
	Size         int
	Category     string
	Status       Status
	CourseName   string
	Keyword      string
	SortBy       string // created_at, updated_at, download_count, view_count or favorite_count
	Order        string // asc or desc
	UploaderID   int64
	ReviewedOnly bool
}

func (p ListParams) Values() url.Values {
	v := url.Values{}
	setInt := func(key string, n int64) {
		if n != 0 {
			v.Set(key, strconv.FormatInt(n, 10))
		}
	}
	setInt("page", int64(p.Page))
	setInt("size", int64(p.Size))
	setInt("uploader_id", p.UploaderID)
	v.Set("category", p.Category)
	v.Set("status", string(p.Status))
	v.Set("course_name", p.CourseName)
	v.Set("keyword", p.Keyword)
	v.Set("sort_by", p.SortBy)
	v.Set("order", p.Order)
	if p.ReviewedOnly {
		v.Set("reviewed_only", "true")
	}
	return v
}

// merge overlays the non-zero fields of o onto p.
func (p ListParams) merge(o ListParams) ListParams {
	if o.Page != 0 {
		p.Page = o.Page
	}
	if o.Size != 0 {
		p.Size = o.Size
	}
	if o.Category != "" {
		p.Category = o.Category
	}
	if o.Status != "" {
		p.Status = o.Status
	}
	if o.CourseName != "" {
		p.CourseName = o.CourseName
	}
	if o.Keyword != "" {
		p.Keyword = o.Keyword
	}
	if o.SortBy != "" {
		p.SortBy = o.SortBy
	}
	if o.Order != "" {
		p.Order = o.Order
	}
	if o.UploaderID != 0 {
		p.UploaderID = o.UploaderID
	}
	if o.ReviewedOnly {
		p.ReviewedOnly = true
	}
	return p
}

// Page is one page of a listing. The service names its fields
// inconsistently, so both spellings are accepted.
type Page struct {
	Items []Material
	Total int
	Page  int
	Size  int
}

func (p *Page) UnmarshalJSON(data []byte) error {
	var raw struct {
		Materials []Material `json:"materials"`
		List      []Material `json:"list"`
		Total     int        `json:"total"`
		Page      int        `json:"page"`
		PageSize  int        `json:"page_size"`
		Size      int        `json:"size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Items = raw.Materials
	if p.Items == nil {
		p.Items = raw.List
	}
	if p.Items == nil {
		p.Items = []Material{}
	}
	p.Total = raw.Total
	p.Page = raw.Page
	switch {
	case raw.PageSize > 0:
		p.Size = raw.PageSize
	case raw.Size > 0:
		p.Size = raw.Size
	default:
		p.Size = DefaultPageSize
	}
	return nil
}

type CreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	CourseName  string   `json:"course_name"`
	FileName    string   `json:"file_name"`
	FileSize    int64    `json:"file_size"`
	FileKey     string   `json:"file_key"`
	MimeType    string   `json:"mime_type"`
	Tags        []string `json:"tags,omitempty"`
}

type UpdateRequest struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	CourseName  string   `json:"course_name,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type ReviewRequest struct {
	Approved        bool   `json:"approved"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

type UploadSignatureRequest struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

type UploadSignature struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
	ExpiresAt string `json:"expires_at"`
}

type DownloadSignature struct {
	DownloadURL string `json:"download_url"`
	ExpiresAt   string `json:"expires_at"`
}

type ReportRequest struct {
	Reason      ReportReason `json:"reason"`
	Description string       `json:"description"`
}

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportApproved ReportStatus = "approved"
	ReportRejected ReportStatus = "rejected"
)

type Report struct {
	ID          int64        `json:"id"`
	MaterialID  int64        `json:"material_id"`
	UserID      int64        `json:"user_id"`
	Reason      ReportReason `json:"reason"`
	Description string       `json:"description"`
	Status      ReportStatus `json:"status"`
	HandlerID   *int64       `json:"handler_id,omitempty"`
	HandledAt   string       `json:"handled_at,omitempty"`
	HandleNote  string       `json:"handle_note,omitempty"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at,omitempty"`
	Material    *Material    `json:"material,omitempty"`
	Reporter    *users.User  `json:"reporter,omitempty"`
	Handler     *users.User  `json:"handler,omitempty"`
}

type ReportListParams struct {
	Page   int
	Size   int
	Status ReportStatus
}

func (p ReportListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Size > 0 {
		v.Set("page_size", strconv.Itoa(p.Size))
	}
	v.Set("status", string(p.Status))
	return v
}

type ReportPage struct {
	Items      []Report `json:"list"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	Size       int      `json:"size"`
	TotalPages int      `json:"total_pages"`
}

// HandleReportRequest settles a pending report. Status is approved or
// rejected.
type HandleReportRequest struct {
	Status ReportStatus `json:"status"`
	Note   string       `json:"handle_note,omitempty"`
}

type DeleteUploadedFileRequest struct {
	FileKey string `json:"file_key"`
}

// FavoriteResult reports whether the material was already a favorite
// before the call.
type FavoriteResult struct {
	AlreadyFavorited bool
}

// Service is the remote side of the material store.
type Service interface {
	List(ctx context.Context, params ListParams) (*Page, error)
	ListReviewed(ctx context.Context, params ListParams) (*Page, error)
	Search(ctx context.Context, params ListParams) (*Page, error)
	Get(ctx context.Context, id int64) (*Material, error)
	Create(ctx context.Context, request CreateRequest) (*Material, error)
	Update(ctx context.Context, id int64, request UpdateRequest) (*Material, error)
	Delete(ctx context.Context, id int64) error
	Review(ctx context.Context, id int64, request ReviewRequest) (*Material, error)
	AddFavorite(ctx context.Context, id int64) (FavoriteResult, error)
	RemoveFavorite(ctx context.Context, id int64) error
	Favorites(ctx context.Context, params ListParams) (*Page, error)
	Report(ctx context.Context, id int64, request ReportRequest) (*Report, error)
	DownloadURL(ctx context.Context, id int64) (*DownloadSignature, error)
	UploadSignature(ctx context.Context, request UploadSignatureRequest) (*UploadSignature, error)
	DeleteUploadedFile(ctx context.Context, fileKey string) error
	DownloadRecords(ctx context.Context, params ListParams) (*Page, error)

	ListReports(ctx context.Context, params ReportListParams) (*ReportPage, error)
	GetReport(ctx context.Context, id int64) (*Report, error)
	HandleReport(ctx context.Context, id int64, request HandleReportRequest) (*Report, error)
}
