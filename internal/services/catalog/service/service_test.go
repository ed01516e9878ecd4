package service

import (
	"context"
	"errors"
	"testing"

	"stackscout/internal/modkit/repokit"
	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/store"
	"stackscout/internal/platform/testkit"
	"stackscout/internal/services/catalog/domain"
	"stackscout/internal/services/catalog/repo"
)

type fakeDB struct {
	txCalls int
}

func (f *fakeDB) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (f *fakeDB) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (f *fakeDB) QueryRow(context.Context, string, ...any) store.Row             { return nil }
func (f *fakeDB) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	f.txCalls++
	return fn(f)
}

type fakeRepo struct {
	existing map[string]bool
	insertErr error
	offsets  []int
	updated  []domain.Submission
	getErr   error
}

func (f *fakeRepo) GetApp(_ context.Context, id string) (domain.App, error) {
	if f.getErr != nil {
		return domain.App{}, f.getErr
	}
	return domain.App{ID: id}, nil
}

func (f *fakeRepo) ListApps(_ context.Context, offset, limit int) ([]domain.App, error) {
	f.offsets = append(f.offsets, offset)
	return make([]domain.App, limit), nil
}

func (f *fakeRepo) InsertSubmission(_ context.Context, s domain.Submission) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if f.existing[s.RepositoryURL] {
		return false, nil
	}
	f.existing[s.RepositoryURL] = true
	return true, nil
}

func (f *fakeRepo) UpdateSubmissionText(_ context.Context, s domain.Submission) error {
	f.updated = append(f.updated, s)
	return nil
}

func newSvc(r *fakeRepo) (*Svc, *fakeDB) {
	db := &fakeDB{}
	return New(db, repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return r })), db
}

func TestNew_PanicsOnNilDB(t *testing.T) {
	testkit.MustPanic(t, func() { _ = New(nil, nil) })
}

func TestCreateSubmissions_ReturnsOnlyCreated(t *testing.T) {
	r := &fakeRepo{existing: map[string]bool{"https://github.com/o/old": true}}
	s, db := newSvc(r)

	out, err := s.CreateSubmissions(context.Background(), []domain.Submission{
		{ID: "1", RepositoryURL: "https://github.com/o/old"},
		{ID: "2", RepositoryURL: "https://github.com/o/new"},
		{ID: "3", RepositoryURL: "https://github.com/o/new"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(out) != 1 || out[0].ID != "2" {
		t.Fatalf("expected only id 2, got %+v", out)
	}
	if db.txCalls != 1 {
		t.Fatalf("expected a single transaction, got %d", db.txCalls)
	}
}

func TestCreateSubmissions_InsertErrorAborts(t *testing.T) {
	r := &fakeRepo{existing: map[string]bool{}, insertErr: errors.New("boom")}
	s, _ := newSvc(r)

	out, err := s.CreateSubmissions(context.Background(), []domain.Submission{{ID: "1", RepositoryURL: "u"}})
	if err == nil || out != nil {
		t.Fatalf("expected error and no rows, got %v %v", out, err)
	}
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("expected DB code, got %v", perr.CodeOf(err))
	}
}

func TestSearch_PageToOffset(t *testing.T) {
	r := &fakeRepo{}
	s, _ := newSvc(r)

	if _, err := s.Search(context.Background(), 3, 10); err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(r.offsets) != 1 || r.offsets[0] != 20 {
		t.Fatalf("expected offset 20, got %v", r.offsets)
	}
	if _, err := s.Search(context.Background(), 1, 0); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestGetByID_NotFoundMapped(t *testing.T) {
	s, _ := newSvc(&fakeRepo{getErr: perr.ErrNotFound})

	_, err := s.GetByID(context.Background(), "x")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	testkit.MustContain(t, err.Error(), "app x")
}
