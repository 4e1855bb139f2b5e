package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Mishael-2584/odel-portal/domain"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&DBMagicCode{}, &DBStudentSession{}, &DBAdminSession{}, &DBAdmin{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

func TestMagicCodeRepositoryImpl_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMagicCodeRepository(db)
	ctx := context.Background()

	code := &domain.MagicCode{
		Email:        "student@ueab.ac.ke",
		Code:         "452190",
		MoodleUserID: 321,
		ExpiresAt:    time.Now().Add(10 * time.Minute),
	}
	if err := repo.Create(ctx, code); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if code.ID == 0 {
		t.Error("expected generated ID to be written back")
	}
	if code.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be written back")
	}
}

func TestMagicCodeRepositoryImpl_FindLatestActive(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		setupData     func(db *gorm.DB, repo domain.MagicCodeRepository)
		email         string
		expectedCode  string
		expectedError error
	}{
		{
			name: "returns the most recent unused code",
			setupData: func(db *gorm.DB, repo domain.MagicCodeRepository) {
				db.Create(&DBMagicCode{
					Email: "student@ueab.ac.ke", Code: "111111",
					ExpiresAt: time.Now().Add(10 * time.Minute),
					CreatedAt: time.Now().Add(-2 * time.Minute),
				})
				db.Create(&DBMagicCode{
					Email: "student@ueab.ac.ke", Code: "452190",
					ExpiresAt: time.Now().Add(10 * time.Minute),
					CreatedAt: time.Now(),
				})
			},
			email:        "student@ueab.ac.ke",
			expectedCode: "452190",
		},
		{
			name: "used codes are skipped",
			setupData: func(db *gorm.DB, repo domain.MagicCodeRepository) {
				used := &domain.MagicCode{
					Email: "student@ueab.ac.ke", Code: "999999",
					ExpiresAt: time.Now().Add(10 * time.Minute),
				}
				repo.Create(ctx, used)
				repo.ConsumeByID(ctx, used.ID)
			},
			email:         "student@ueab.ac.ke",
			expectedError: domain.ErrCodeInvalid,
		},
		{
			name:          "no code for email",
			setupData:     func(db *gorm.DB, repo domain.MagicCodeRepository) {},
			email:         "nobody@ueab.ac.ke",
			expectedError: domain.ErrCodeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewMagicCodeRepository(db)
			tt.setupData(db, repo)

			got, err := repo.FindLatestActive(ctx, tt.email)
			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Fatalf("FindLatestActive() error = %v, want %v", err, tt.expectedError)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindLatestActive() error = %v", err)
			}
			if got.Code != tt.expectedCode {
				t.Errorf("code = %q, want %q", got.Code, tt.expectedCode)
			}
		})
	}
}

func TestMagicCodeRepositoryImpl_IncrementAttempts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMagicCodeRepository(db)
	ctx := context.Background()

	code := &domain.MagicCode{
		Email: "student@ueab.ac.ke", Code: "452190",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	repo.Create(ctx, code)

	for i := 0; i < 3; i++ {
		if err := repo.IncrementAttempts(ctx, code.ID); err != nil {
			t.Fatalf("IncrementAttempts() error = %v", err)
		}
	}

	got, err := repo.FindLatestActive(ctx, code.Email)
	if err != nil {
		t.Fatalf("FindLatestActive() error = %v", err)
	}
	if got.AttemptedCount != 3 {
		t.Errorf("AttemptedCount = %d, want 3", got.AttemptedCount)
	}
}

func TestMagicCodeRepositoryImpl_ConsumeByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMagicCodeRepository(db)
	ctx := context.Background()

	code := &domain.MagicCode{
		Email: "student@ueab.ac.ke", Code: "452190",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	repo.Create(ctx, code)

	consumed, err := repo.ConsumeByID(ctx, code.ID)
	if err != nil {
		t.Fatalf("ConsumeByID() error = %v", err)
	}
	if !consumed {
		t.Fatal("first consume should win")
	}

	consumed, err = repo.ConsumeByID(ctx, code.ID)
	if err != nil {
		t.Fatalf("ConsumeByID() error = %v", err)
	}
	if consumed {
		t.Error("second consume of the same code must lose")
	}
}

func TestMagicCodeRepositoryImpl_ConsumeByID_SingleWinner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMagicCodeRepository(db)
	ctx := context.Background()

	code := &domain.MagicCode{
		Email: "student@ueab.ac.ke", Code: "452190",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	repo.Create(ctx, code)

	const racers = 8
	var wg sync.WaitGroup
	wins := make(chan bool, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ConsumeByID(ctx, code.ID)
			if err != nil {
				// SQLite serializes writers; a busy error still counts
				// as a loss for this goroutine.
				return
			}
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for ok := range wins {
		if ok {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("got %d winners, want exactly 1", winners)
	}
}

func TestMagicCodeRepositoryImpl_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMagicCodeRepository(db)
	ctx := context.Background()

	repo.Create(ctx, &domain.MagicCode{
		Email: "expired@ueab.ac.ke", Code: "111111",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	repo.Create(ctx, &domain.MagicCode{
		Email: "fresh@ueab.ac.ke", Code: "222222",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	})

	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}

	var count int64
	db.Model(&DBMagicCode{}).Count(&count)
	if count != 1 {
		t.Errorf("got %d rows after DeleteExpired, want 1", count)
	}
	if _, err := repo.FindLatestActive(ctx, "fresh@ueab.ac.ke"); err != nil {
		t.Errorf("fresh code should survive: %v", err)
	}
}
