package materials

import (
	"context"
	"fmt"
	"slices"
	"sync"

	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
	"github.com/rs/zerolog/log"
)

// Store holds the listing and detail view the user is looking at. Remote
// calls run without the lock; results are applied under it.
type Store struct {
	service Service

	items   []Material
	current *Material
	total   int
	page    int
	size    int
	params  ListParams

	reports     []Report
	reportTotal int
	lock        sync.RWMutex
}

func NewStore(service Service) *Store {
	s := &Store{service: service}
	s.resetLocked()
	return s
}

// FetchList loads a listing, overlaying params on the last query used.
func (s *Store) FetchList(ctx context.Context, params ListParams) (*Page, error) {
	query := s.Params().merge(params)
	page, err := s.service.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("[FetchList] %w", err)
	}
	s.applyPage(page, &query)
	return page, nil
}

// FetchReviewed is FetchList over approved and rejected materials.
func (s *Store) FetchReviewed(ctx context.Context, params ListParams) (*Page, error) {
	query := s.Params().merge(params)
	page, err := s.service.ListReviewed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("[FetchReviewed] %w", err)
	}
	s.applyPage(page, &query)
	return page, nil
}

// Search replaces the listing with search results. The last query used by
// FetchList is kept.
func (s *Store) Search(ctx context.Context, params ListParams) (*Page, error) {
	page, err := s.service.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("[Search] %w", err)
	}
	s.applyPage(page, nil)
	return page, nil
}

func (s *Store) FetchFavorites(ctx context.Context, params ListParams) (*Page, error) {
	page, err := s.service.Favorites(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("[FetchFavorites] %w", err)
	}
	s.applyPage(page, nil)
	return page, nil
}

func (s *Store) FetchMaterial(ctx context.Context, id int64) (*Material, error) {
	m, err := s.service.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("[FetchMaterial] %w", err)
	}
	s.lock.Lock()
	s.current = m.Clone()
	s.lock.Unlock()
	return m, nil
}

// Create adds a material and reloads the listing.
func (s *Store) Create(ctx context.Context, request CreateRequest) (*Material, error) {
	m, err := s.service.Create(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("[Create] %w", err)
	}
	if _, err := s.FetchList(ctx, ListParams{}); err != nil {
		log.Warn().Err(err).Msg("reloading materials after create failed")
	}
	return m, nil
}

func (s *Store) Update(ctx context.Context, id int64, request UpdateRequest) (*Material, error) {
	m, err := s.service.Update(ctx, id, request)
	if err != nil {
		return nil, fmt.Errorf("[Update] %w", err)
	}
	s.replace(m)
	return m, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.service.Delete(ctx, id); err != nil {
		return fmt.Errorf("[Delete] %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.items = deleteID(s.items, id)
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	return nil
}

func (s *Store) Review(ctx context.Context, id int64, request ReviewRequest) (*Material, error) {
	m, err := s.service.Review(ctx, id, request)
	if err != nil {
		return nil, fmt.Errorf("[Review] %w", err)
	}
	s.replace(m)
	return m, nil
}

// AddFavorite marks id as a favorite. A material already marked locally is
// reported as such without calling the service. The favorite count only
// grows for a new favorite.
func (s *Store) AddFavorite(ctx context.Context, id int64) (FavoriteResult, error) {
	if s.IsFavorited(id) {
		return FavoriteResult{AlreadyFavorited: true}, nil
	}

	result, err := s.service.AddFavorite(ctx, id)
	if err != nil {
		return FavoriteResult{}, fmt.Errorf("[AddFavorite] %w", err)
	}

	delta := 1
	if result.AlreadyFavorited {
		delta = 0
	}
	s.setFavorite(id, true, delta)
	return result, nil
}

func (s *Store) RemoveFavorite(ctx context.Context, id int64) error {
	if err := s.service.RemoveFavorite(ctx, id); err != nil {
		return fmt.Errorf("[RemoveFavorite] %w", err)
	}
	s.setFavorite(id, false, -1)
	return nil
}

func (s *Store) Report(ctx context.Context, id int64, request ReportRequest) (*Report, error) {
	if !request.Reason.Valid() {
		return nil, fmt.Errorf("[Report] unknown reason %q", request.Reason)
	}
	r, err := s.service.Report(ctx, id, request)
	if err != nil {
		return nil, fmt.Errorf("[Report] %w", err)
	}
	return r, nil
}

// DownloadURL returns a signed, expiring link to the material's file.
func (s *Store) DownloadURL(ctx context.Context, id int64) (*DownloadSignature, error) {
	sig, err := s.service.DownloadURL(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("[DownloadURL] %w", err)
	}
	return sig, nil
}

func (s *Store) UploadSignature(ctx context.Context, request UploadSignatureRequest) (*UploadSignature, error) {
	sig, err := s.service.UploadSignature(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("[UploadSignature] %w", err)
	}
	return sig, nil
}

// DeleteUploadedFile discards an uploaded object that was never attached to
// a material.
func (s *Store) DeleteUploadedFile(ctx context.Context, fileKey string) error {
	if fileKey == "" {
		return errs.Wrapf(errs.ErrInvalidParams, "[DeleteUploadedFile] missing file key")
	}
	if err := s.service.DeleteUploadedFile(ctx, fileKey); err != nil {
		return fmt.Errorf("[DeleteUploadedFile] %w", err)
	}
	return nil
}

// FetchDownloads replaces the listing with the user's download history,
// newest first.
func (s *Store) FetchDownloads(ctx context.Context, params ListParams) (*Page, error) {
	page, err := s.service.DownloadRecords(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("[FetchDownloads] %w", err)
	}
	s.applyPage(page, nil)
	return page, nil
}

func (s *Store) FetchReports(ctx context.Context, params ReportListParams) (*ReportPage, error) {
	page, err := s.service.ListReports(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("[FetchReports] %w", err)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.reports = slices.Clone(page.Items)
	s.reportTotal = page.Total
	return page, nil
}

func (s *Store) FetchReport(ctx context.Context, id int64) (*Report, error) {
	r, err := s.service.GetReport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("[FetchReport] %w", err)
	}
	s.replaceReport(*r)
	return r, nil
}

// HandleReport approves or rejects a report and updates it in the loaded
// report list.
func (s *Store) HandleReport(ctx context.Context, id int64, request HandleReportRequest) (*Report, error) {
	if request.Status != ReportApproved && request.Status != ReportRejected {
		return nil, errs.Wrapf(errs.ErrInvalidParams, "[HandleReport] status must be approved or rejected, got %q", request.Status)
	}
	r, err := s.service.HandleReport(ctx, id, request)
	if err != nil {
		return nil, fmt.Errorf("[HandleReport] %w", err)
	}
	if r == nil || r.ID == 0 {
		s.lock.Lock()
		for i := range s.reports {
			if s.reports[i].ID == id {
				s.reports[i].Status = request.Status
				s.reports[i].HandleNote = request.Note
			}
		}
		s.lock.Unlock()
		return r, nil
	}
	s.replaceReport(*r)
	return r, nil
}

func (s *Store) Reports() []Report {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.reports)
}

func (s *Store) ReportTotal() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.reportTotal
}

func (s *Store) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.resetLocked()
}

// IsFavorited reports the local favorite flag of id in the listing or the
// current material.
func (s *Store) IsFavorited(id int64) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].IsFavorited {
			return true
		}
	}
	return s.current != nil && s.current.ID == id && s.current.IsFavorited
}

func (s *Store) Materials() []Material {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make([]Material, len(s.items))
	for i := range s.items {
		out[i] = *s.items[i].Clone()
	}
	return out
}

func (s *Store) Current() *Material {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.current.Clone()
}

func (s *Store) Total() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.total
}

func (s *Store) Params() ListParams {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.params
}

// HasMore reports whether pages follow the current one.
func (s *Store) HasMore() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.page*s.size < s.total
}

func (s *Store) TotalPages() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.size <= 0 {
		return 0
	}
	return (s.total + s.size - 1) / s.size
}

func (s *Store) applyPage(page *Page, query *ListParams) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.items = make([]Material, len(page.Items))
	for i := range page.Items {
		s.items[i] = *page.Items[i].Clone()
	}
	s.total = page.Total
	s.page = page.Page
	s.size = page.Size
	if query != nil {
		s.params = *query
	}
}

func (s *Store) replace(m *Material) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for i := range s.items {
		if s.items[i].ID == m.ID {
			s.items[i] = *m.Clone()
		}
	}
	if s.current != nil && s.current.ID == m.ID {
		s.current = m.Clone()
	}
}

func (s *Store) replaceReport(r Report) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for i := range s.reports {
		if s.reports[i].ID == r.ID {
			s.reports[i] = r
		}
	}
}

func (s *Store) setFavorite(id int64, favorited bool, delta int) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].IsFavorited = favorited
			s.items[i].FavoriteCount = max(s.items[i].FavoriteCount+delta, 0)
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current.IsFavorited = favorited
		s.current.FavoriteCount = max(s.current.FavoriteCount+delta, 0)
	}
}

func (s *Store) resetLocked() {
	s.items = nil
	s.current = nil
	s.total = 0
	s.page = DefaultPage
	s.size = DefaultPageSize
	s.params = ListParams{Page: DefaultPage, Size: DefaultPageSize}
	s.reports = nil
	s.reportTotal = 0
}

func deleteID(items []Material, id int64) []Material {
	out := items[:0]
	for _, m := range items {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
