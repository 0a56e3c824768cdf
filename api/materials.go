package api

import (
	"context"
	"errors"
	"fmt"

	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
	"github.com/jrsteele09/go-dochub-client/materials"
)

var _ materials.Service = (*MaterialsAPI)(nil)

// MaterialsAPI is the HTTP implementation of materials.Service.
type MaterialsAPI struct {
	client *Client
}

func NewMaterialsAPI(client *Client) *MaterialsAPI {
	return &MaterialsAPI{client: client}
}

func materialPath(id int64, suffix string) string {
	return fmt.Sprintf("/materials/%d%s", id, suffix)
}

func (a *MaterialsAPI) list(ctx context.Context, path string, params materials.ListParams) (*materials.Page, error) {
	page := &materials.Page{}
	if err := a.client.Get(ctx, path, params.Values(), page); err != nil {
		return nil, err
	}
	return page, nil
}

func (a *MaterialsAPI) List(ctx context.Context, params materials.ListParams) (*materials.Page, error) {
	return a.list(ctx, "/materials", params)
}

func (a *MaterialsAPI) ListReviewed(ctx context.Context, params materials.ListParams) (*materials.Page, error) {
	return a.list(ctx, "/admin/materials/reviewed", params)
}

func (a *MaterialsAPI) Search(ctx context.Context, params materials.ListParams) (*materials.Page, error) {
	return a.list(ctx, "/materials/search", params)
}

func (a *MaterialsAPI) Favorites(ctx context.Context, params materials.ListParams) (*materials.Page, error) {
	return a.list(ctx, "/favorites", params)
}

func (a *MaterialsAPI) Get(ctx context.Context, id int64) (*materials.Material, error) {
	m := &materials.Material{}
	if err := a.client.Get(ctx, materialPath(id, ""), nil, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (a *MaterialsAPI) Create(ctx context.Context, request materials.CreateRequest) (*materials.Material, error) {
	m := &materials.Material{}
	if err := a.client.Post(ctx, "/materials", request, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (a *MaterialsAPI) Update(ctx context.Context, id int64, request materials.UpdateRequest) (*materials.Material, error) {
	m := &materials.Material{}
	if err := a.client.Put(ctx, materialPath(id, ""), request, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (a *MaterialsAPI) Delete(ctx context.Context, id int64) error {
	return a.client.Delete(ctx, materialPath(id, ""), nil)
}

func (a *MaterialsAPI) Review(ctx context.Context, id int64, request materials.ReviewRequest) (*materials.Material, error) {
	m := &materials.Material{}
	if err := a.client.Post(ctx, materialPath(id, "/review"), request, m); err != nil {
		return nil, err
	}
	return m, nil
}

// AddFavorite treats the service's duplicate code as success with
// AlreadyFavorited set.
func (a *MaterialsAPI) AddFavorite(ctx context.Context, id int64) (materials.FavoriteResult, error) {
	err := a.client.Post(ctx, materialPath(id, "/favorite"), nil, nil)
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Code == CodeDuplicate {
		return materials.FavoriteResult{AlreadyFavorited: true}, nil
	}
	if err != nil {
		return materials.FavoriteResult{}, err
	}
	return materials.FavoriteResult{}, nil
}

func (a *MaterialsAPI) RemoveFavorite(ctx context.Context, id int64) error {
	return a.client.Delete(ctx, materialPath(id, "/favorite"), nil)
}

func (a *MaterialsAPI) Report(ctx context.Context, id int64, request materials.ReportRequest) (*materials.Report, error) {
	r := &materials.Report{}
	if err := a.client.Post(ctx, materialPath(id, "/report"), request, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (a *MaterialsAPI) DownloadURL(ctx context.Context, id int64) (*materials.DownloadSignature, error) {
	sig := &materials.DownloadSignature{}
	if err := a.client.Get(ctx, materialPath(id, "/download"), nil, sig); err != nil {
		return nil, err
	}
	if sig.DownloadURL == "" {
		return nil, errs.Wrapf(errs.ErrServer, "[DownloadURL] empty download url for material %d", id)
	}
	return sig, nil
}

func (a *MaterialsAPI) UploadSignature(ctx context.Context, request materials.UploadSignatureRequest) (*materials.UploadSignature, error) {
	sig := &materials.UploadSignature{}
	if err := a.client.Post(ctx, "/materials/upload-signature", request, sig); err != nil {
		return nil, err
	}
	return sig, nil
}

func (a *MaterialsAPI) DeleteUploadedFile(ctx context.Context, fileKey string) error {
	return a.client.Post(ctx, "/materials/delete-uploaded-file", materials.DeleteUploadedFileRequest{FileKey: fileKey}, nil)
}

func (a *MaterialsAPI) DownloadRecords(ctx context.Context, params materials.ListParams) (*materials.Page, error) {
	return a.list(ctx, "/downloads", params)
}

func (a *MaterialsAPI) ListReports(ctx context.Context, params materials.ReportListParams) (*materials.ReportPage, error) {
	page := &materials.ReportPage{}
	if err := a.client.Get(ctx, "/admin/reports", params.Values(), page); err != nil {
		return nil, err
	}
	return page, nil
}

func (a *MaterialsAPI) GetReport(ctx context.Context, id int64) (*materials.Report, error) {
	r := &materials.Report{}
	if err := a.client.Get(ctx, fmt.Sprintf("/admin/reports/%d", id), nil, r); err != nil {
		return nil, err
	}
	return r, nil
}

// HandleReport returns an empty report when the service answers without
// data.
func (a *MaterialsAPI) HandleReport(ctx context.Context, id int64, request materials.HandleReportRequest) (*materials.Report, error) {
	r := &materials.Report{}
	if err := a.client.Post(ctx, fmt.Sprintf("/admin/reports/%d/handle", id), request, r); err != nil {
		return nil, err
	}
	return r, nil
}
