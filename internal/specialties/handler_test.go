package specialties

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

type fakeRepo struct {
	items  map[int64]*Specialty
	inUse  map[int64]bool
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[int64]*Specialty{}, inUse: map[int64]bool{}, nextID: 1}
}

func (f *fakeRepo) List(context.Context) ([]*Specialty, error) {
	var out []*Specialty
	for _, s := range f.items {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeRepo) ListWithCounts(ctx context.Context) ([]*Specialty, error) {
	return f.List(ctx)
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (*Specialty, error) {
	s, ok := f.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (f *fakeRepo) GetByName(_ context.Context, name string) (*Specialty, error) {
	for _, s := range f.items {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) IDByName(ctx context.Context, name string) (int64, error) {
	s, err := f.GetByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return s.ID, nil
}

func (f *fakeRepo) Create(_ context.Context, req *UpsertRequest) (*Specialty, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for _, s := range f.items {
		if strings.EqualFold(s.Name, req.Name) {
			return nil, ErrNameTaken
		}
	}
	s := &Specialty{ID: f.nextID, Name: req.Name, Description: req.Description}
	f.items[s.ID] = s
	f.nextID++
	return s, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, req *UpsertRequest) (*Specialty, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s, ok := f.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.Name = req.Name
	s.Description = req.Description
	return s, nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return ErrNotFound
	}
	if f.inUse[id] {
		return ErrInUse
	}
	delete(f.items, id)
	return nil
}

func withID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateSpecialty(t *testing.T) {
	h := NewHandler(newFakeRepo(), nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/specialties", strings.NewReader(`{"name":"Cardiologie","description":"Coeur"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var created Specialty
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == 0 || created.Name != "Cardiologie" {
		t.Fatalf("unexpected specialty %+v", created)
	}
}

func TestCreateSpecialtyRejectsDuplicateName(t *testing.T) {
	repo := newFakeRepo()
	if _, err := repo.Create(context.Background(), &UpsertRequest{Name: "Cardiologie"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewHandler(repo, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/specialties", strings.NewReader(`{"name":"cardiologie"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateSpecialtyRequiresName(t *testing.T) {
	h := NewHandler(newFakeRepo(), nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/specialties", strings.NewReader(`{"name":"  "}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDeleteSpecialtyInUse(t *testing.T) {
	repo := newFakeRepo()
	s, err := repo.Create(context.Background(), &UpsertRequest{Name: "Dermatologie"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	repo.inUse[s.ID] = true
	h := NewHandler(repo, nil)

	req := withID(httptest.NewRequest(http.MethodDelete, "/admin/specialties/1", nil), "1")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if _, ok := repo.items[s.ID]; !ok {
		t.Fatal("specialty was deleted despite doctors referencing it")
	}
}

func TestDeleteSpecialtyNotFound(t *testing.T) {
	h := NewHandler(newFakeRepo(), nil)

	req := withID(httptest.NewRequest(http.MethodDelete, "/admin/specialties/9", nil), "9")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListSpecialtiesEmpty(t *testing.T) {
	h := NewHandler(newFakeRepo(), nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/specialties", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %q, want empty array", got)
	}
}
