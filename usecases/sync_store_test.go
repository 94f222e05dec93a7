package usecases

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"wattwise-server/db"
	"wattwise-server/entities"
	"wattwise-server/identity"
	"wattwise-server/repositories"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// one connection keeps sqlite from answering "table is locked"
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// lockstepRepo holds the first n subject lookups until all of them have
// run, so every caller sees the subject as missing and goes on to insert.
type lockstepRepo struct {
	repositories.ProfileRepository
	lookups atomic.Int32
	n       int32
	barrier sync.WaitGroup
	creates atomic.Int32
}

func newLockstepRepo(inner repositories.ProfileRepository, n int) *lockstepRepo {
	r := &lockstepRepo{ProfileRepository: inner, n: int32(n)}
	r.barrier.Add(n)
	return r
}

func (r *lockstepRepo) FindBySubject(ctx context.Context, subject string) (*entities.Profile, error) {
	p, err := r.ProfileRepository.FindBySubject(ctx, subject)
	if r.lookups.Add(1) <= r.n {
		r.barrier.Done()
		r.barrier.Wait()
	}
	return p, err
}

func (r *lockstepRepo) Create(ctx context.Context, p *entities.Profile) error {
	r.creates.Add(1)
	return r.ProfileRepository.Create(ctx, p)
}

func TestConcurrentFirstSyncCreatesOneRow(t *testing.T) {
	gdb := setupStore(t)
	repo := newLockstepRepo(repositories.NewProfilePgRepository(&db.GormDatabase{DB: gdb}), 2)
	uc := NewProfileUseCase(repo, nil)
	claims := identity.Claims{Subject: "uid-race", Email: "race@example.com"}

	var wg sync.WaitGroup
	results := make([]*entities.Profile, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = uc.Sync(context.Background(), claims)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
	}
	if results[0].ID == "" || results[0].ID != results[1].ID {
		t.Fatalf("both callers must get the same profile, got %q and %q", results[0].ID, results[1].ID)
	}
	if got := repo.creates.Load(); got != 2 {
		t.Fatalf("both callers should have tried to insert, got %d", got)
	}

	var count int64
	if err := gdb.Model(&entities.Profile{}).Where("identity_subject_id = ?", "uid-race").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one stored profile, got %d", count)
	}
}
