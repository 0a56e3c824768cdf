package categories_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-dochub-client/categories"
	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	rows   map[int64]categories.Category
	nextID int64
}

var _ categories.Service = (*fakeService)(nil)

func newFakeService() *fakeService {
	return &fakeService{
		rows: map[int64]categories.Category{
			1: {ID: 1, Code: "exam", Name: "Exam papers", NameZh: "试卷", IsActive: true, SortOrder: 1},
			2: {ID: 2, Code: "notes", Name: "Lecture notes", IsActive: true, SortOrder: 2},
			3: {ID: 3, Code: "misc", Name: "Miscellaneous", IsActive: false, SortOrder: 3},
		},
		nextID: 3,
	}
}

func (f *fakeService) List(_ context.Context, activeOnly bool) ([]categories.Category, error) {
	var out []categories.Category
	for id := int64(1); id <= f.nextID; id++ {
		c, ok := f.rows[id]
		if ok && (!activeOnly || c.IsActive) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeService) Create(_ context.Context, request categories.Request) (*categories.Category, error) {
	f.nextID++
	c := categories.Category{ID: f.nextID, Code: request.Code, Name: request.Name, IsActive: request.IsActive == nil || *request.IsActive}
	f.rows[c.ID] = c
	return &c, nil
}

func (f *fakeService) Update(_ context.Context, id int64, request categories.Request) (*categories.Category, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c.Name = request.Name
	if request.IsActive != nil {
		c.IsActive = *request.IsActive
	}
	f.rows[id] = c
	return &c, nil
}

func (f *fakeService) Delete(_ context.Context, id int64) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeService) Toggle(_ context.Context, id int64) (*categories.Category, error) {
	c := f.rows[id]
	c.IsActive = !c.IsActive
	f.rows[id] = c
	return &c, nil
}

func codes(list []categories.Category) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Code)
	}
	return out
}

func loaded(t *testing.T) *categories.Store {
	t.Helper()
	s := categories.NewStore(newFakeService())
	_, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	_, err = s.FetchActive(context.Background())
	require.NoError(t, err)
	return s
}

func TestFetch(t *testing.T) {
	s := loaded(t)
	require.Equal(t, []string{"exam", "notes", "misc"}, codes(s.All()))
	require.Equal(t, []string{"exam", "notes"}, codes(s.Active()))
}

func TestToggleKeepsActiveListConsistent(t *testing.T) {
	s := loaded(t)
	ctx := context.Background()

	_, err := s.Toggle(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, []string{"exam", "notes", "misc"}, codes(s.Active()))

	_, err = s.Toggle(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"notes", "misc"}, codes(s.Active()))
	require.False(t, s.All()[0].IsActive)
}

func TestCreateUpdateDelete(t *testing.T) {
	s := loaded(t)
	ctx := context.Background()
	inactive := false

	_, err := s.Create(ctx, categories.Request{Code: "labs", Name: "Lab reports", IsActive: &inactive})
	require.NoError(t, err)
	require.Len(t, s.All(), 4)
	require.Equal(t, []string{"exam", "notes"}, codes(s.Active()))

	active := true
	_, err = s.Update(ctx, 4, categories.Request{Name: "Lab work", IsActive: &active})
	require.NoError(t, err)
	require.Equal(t, []string{"exam", "notes", "labs"}, codes(s.Active()))

	_, err = s.Update(ctx, 2, categories.Request{Name: "Notes", IsActive: &inactive})
	require.NoError(t, err)
	require.Equal(t, []string{"exam", "labs"}, codes(s.Active()))

	require.NoError(t, s.Delete(ctx, 1))
	require.Equal(t, []string{"notes", "misc", "labs"}, codes(s.All()))
	require.Equal(t, []string{"labs"}, codes(s.Active()))

	_, err = s.Update(ctx, 99, categories.Request{Name: "x"})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestName(t *testing.T) {
	s := loaded(t)

	require.Equal(t, "试卷", s.Name("exam"))
	require.Equal(t, "Lecture notes", s.Name("notes"))
	require.Equal(t, "misc", s.Name("misc"))
	require.Equal(t, "unknown", s.Name("unknown"))

	c, ok := s.ByCode("notes")
	require.True(t, ok)
	require.Equal(t, int64(2), c.ID)

	s.Reset()
	require.Empty(t, s.All())
	require.Equal(t, "exam", s.Name("exam"))
}
