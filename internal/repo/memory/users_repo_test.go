package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/userdesk/internal/domain/user"
	"github.com/geocoder89/userdesk/internal/repo/memory"
)

func seedUsers(t *testing.T, repo *memory.UsersRepo, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := repo.Create(context.Background(), user.Placeholder(), ""); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestUsersRepo_ListPages(t *testing.T) {
	repo := memory.NewUsersRepo()
	seedUsers(t, repo, 12)

	tests := []struct {
		name    string
		offset  int
		limit   int
		wantLen int
		firstID int64
	}{
		{name: "first_page", offset: 0, limit: 5, wantLen: 5, firstID: 1},
		{name: "middle_page", offset: 5, limit: 5, wantLen: 5, firstID: 6},
		{name: "partial_last_page", offset: 10, limit: 5, wantLen: 2, firstID: 11},
		{name: "past_the_end", offset: 15, limit: 5, wantLen: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.List(context.Background(), tt.offset, tt.limit)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if total != 12 {
				t.Fatalf("total = %d, want 12", total)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].ID != tt.firstID {
				t.Fatalf("first id = %d, want %d", got[0].ID, tt.firstID)
			}
		})
	}
}

func TestUsersRepo_ListRejectsBadWindow(t *testing.T) {
	repo := memory.NewUsersRepo()
	seedUsers(t, repo, 3)

	for _, w := range [][2]int{{-1, 5}, {-9223372036854775616, 100}, {0, 0}} {
		if _, _, err := repo.List(context.Background(), w[0], w[1]); !errors.Is(err, user.ErrBadWindow) {
			t.Fatalf("List(%d, %d) err = %v, want ErrBadWindow", w[0], w[1], err)
		}
	}
}

func TestUsersRepo_UpdateOnlyProvidedFields(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()
	created, _ := repo.Create(ctx, user.Placeholder(), "")

	info := "likes go"
	got, err := repo.Update(ctx, created.ID, user.UpdateRequest{PersonalInfo: &info})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if got.PersonalInfo != info {
		t.Fatalf("personalInfo = %q", got.PersonalInfo)
	}
	if got.Name != created.Name || got.Email != created.Email || got.Role != created.Role {
		t.Fatalf("other fields changed: %+v", got)
	}

	if _, err := repo.Update(ctx, 999, user.UpdateRequest{}); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsersRepo_GetByEmailNeedsPassword(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	seedUsers(t, repo, 1)
	if _, err := repo.GetByEmail(ctx, "newuser@example.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("accounts without password must not be found, got %v", err)
	}

	_, _ = repo.Create(ctx, user.CreateRequest{Name: "Admin", Email: "admin@example.com", Role: "admin"}, "hash")

	a, err := repo.GetByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if a.PasswordHash != "hash" {
		t.Fatalf("unexpected account: %+v", a)
	}
}

func TestUsersRepo_Delete(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()
	seedUsers(t, repo, 2)

	if err := repo.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, 1); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}

	_, total, _ := repo.List(ctx, 0, 10)
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
}
