package sqlite

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/sakif/found/internal/apperror"
	"github.com/sakif/found/internal/model"
	"github.com/sakif/found/internal/repository"
)

func upsertTestProfile(t *testing.T, p *ProfileDB, id string, patch model.ProfilePatch) {
	t.Helper()
	if err := p.UpsertProfile(context.Background(), id, id+"@example.com", patch, time.Now()); err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}
}

func listTags(t *testing.T, p *ProfileDB, kind model.TagKind, id string) []string {
	t.Helper()
	names, err := p.ListTags(context.Background(), kind, id)
	if err != nil {
		t.Fatalf("ListTags(%s) error = %v", kind, err)
	}
	return names
}

// =========================================================================
// GET / UPSERT TESTS
// =========================================================================

func TestGetProfile_NotFound(t *testing.T) {
	p := newTestDB(t).Profiles()

	_, err := p.GetProfile(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestUpsertProfile_InsertLeavesOmittedColumnsNull(t *testing.T) {
	p := newTestDB(t).Profiles()
	upsertTestProfile(t, p, "u1", model.ProfilePatch{Name: model.StringPtr("Ada")})

	got, err := p.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.Name == nil || *got.Name != "Ada" {
		t.Errorf("Name = %v, want Ada", got.Name)
	}
	if got.Role != nil {
		t.Errorf("Role = %q, want nil", *got.Role)
	}
	if got.Email != "u1@example.com" {
		t.Errorf("Email = %q, want u1@example.com", got.Email)
	}
	if got.Skills != nil || got.Interests != nil {
		t.Error("GetProfile() should not load child collections")
	}
}

func TestUpsertProfile_UpdateOnlyTouchesPatchedColumns(t *testing.T) {
	p := newTestDB(t).Profiles()
	ctx := context.Background()

	upsertTestProfile(t, p, "u1", model.ProfilePatch{
		Name:     model.StringPtr("Ada"),
		Role:     model.StringPtr("Engineer"),
		Location: model.StringPtr("London"),
	})
	first, _ := p.GetProfile(ctx, "u1")

	later := first.UpdatedAt.Add(time.Minute)
	if err := p.UpsertProfile(ctx, "u1", "u1@example.com", model.ProfilePatch{Role: model.StringPtr("Founder")}, later); err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}

	got, err := p.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if *got.Role != "Founder" {
		t.Errorf("Role = %q, want Founder", *got.Role)
	}
	if got.Name == nil || *got.Name != "Ada" {
		t.Errorf("Name = %v, want untouched Ada", got.Name)
	}
	if got.Location == nil || *got.Location != "London" {
		t.Errorf("Location = %v, want untouched London", got.Location)
	}
	if !got.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want after %v", got.UpdatedAt, first.UpdatedAt)
	}
}

// =========================================================================
// TAG COLLECTION TESTS
// =========================================================================

func TestListTags_EmptyIsNotNil(t *testing.T) {
	p := newTestDB(t).Profiles()
	upsertTestProfile(t, p, "u1", model.ProfilePatch{})

	got := listTags(t, p, model.TagSkills, "u1")
	if got == nil || len(got) != 0 {
		t.Errorf("ListTags() = %#v, want empty non-nil slice", got)
	}
}

func TestReplaceTags_KeepsOrder(t *testing.T) {
	p := newTestDB(t).Profiles()
	upsertTestProfile(t, p, "u1", model.ProfilePatch{})

	want := []string{"Rust", "Go", "Elixir"}
	if err := p.ReplaceTags(context.Background(), model.TagSkills, "u1", want); err != nil {
		t.Fatalf("ReplaceTags() error = %v", err)
	}

	if got := listTags(t, p, model.TagSkills, "u1"); !reflect.DeepEqual(got, want) {
		t.Errorf("ListTags() = %v, want %v", got, want)
	}
}

func TestReplaceTags_FullReplaceNotMerge(t *testing.T) {
	p := newTestDB(t).Profiles()
	ctx := context.Background()
	upsertTestProfile(t, p, "u1", model.ProfilePatch{})

	if err := p.ReplaceTags(ctx, model.TagSkills, "u1", []string{"Go", "SQL"}); err != nil {
		t.Fatalf("first ReplaceTags() error = %v", err)
	}
	if err := p.ReplaceTags(ctx, model.TagSkills, "u1", []string{"Design"}); err != nil {
		t.Fatalf("second ReplaceTags() error = %v", err)
	}

	if got := listTags(t, p, model.TagSkills, "u1"); !reflect.DeepEqual(got, []string{"Design"}) {
		t.Errorf("ListTags() = %v, want [Design]", got)
	}
}

func TestReplaceTags_EmptyClears(t *testing.T) {
	p := newTestDB(t).Profiles()
	ctx := context.Background()
	upsertTestProfile(t, p, "u1", model.ProfilePatch{})

	if err := p.ReplaceTags(ctx, model.TagInterests, "u1", []string{"AI"}); err != nil {
		t.Fatalf("ReplaceTags() error = %v", err)
	}
	if err := p.ReplaceTags(ctx, model.TagInterests, "u1", nil); err != nil {
		t.Fatalf("ReplaceTags(nil) error = %v", err)
	}

	if got := listTags(t, p, model.TagInterests, "u1"); len(got) != 0 {
		t.Errorf("ListTags() = %v, want empty", got)
	}
}

func TestReplaceTags_CollectionsAreIndependent(t *testing.T) {
	p := newTestDB(t).Profiles()
	ctx := context.Background()
	upsertTestProfile(t, p, "u1", model.ProfilePatch{})

	if err := p.ReplaceTags(ctx, model.TagSkills, "u1", []string{"Go"}); err != nil {
		t.Fatalf("ReplaceTags(skills) error = %v", err)
	}
	if err := p.ReplaceTags(ctx, model.TagInterests, "u1", []string{"Climbing"}); err != nil {
		t.Fatalf("ReplaceTags(interests) error = %v", err)
	}
	if err := p.ReplaceTags(ctx, model.TagInterests, "u1", []string{}); err != nil {
		t.Fatalf("ReplaceTags(interests, empty) error = %v", err)
	}

	if got := listTags(t, p, model.TagSkills, "u1"); !reflect.DeepEqual(got, []string{"Go"}) {
		t.Errorf("skills = %v, want [Go]", got)
	}
}

func TestReplaceTags_ProfilesAreIsolated(t *testing.T) {
	p := newTestDB(t).Profiles()
	ctx := context.Background()
	upsertTestProfile(t, p, "u1", model.ProfilePatch{})
	upsertTestProfile(t, p, "u2", model.ProfilePatch{})

	if err := p.ReplaceTags(ctx, model.TagSkills, "u1", []string{"Go"}); err != nil {
		t.Fatalf("ReplaceTags(u1) error = %v", err)
	}
	if err := p.ReplaceTags(ctx, model.TagSkills, "u2", []string{}); err != nil {
		t.Fatalf("ReplaceTags(u2) error = %v", err)
	}

	if got := listTags(t, p, model.TagSkills, "u1"); !reflect.DeepEqual(got, []string{"Go"}) {
		t.Errorf("u1 skills = %v, want [Go]", got)
	}
}

func TestReplaceTags_UnknownKind(t *testing.T) {
	p := newTestDB(t).Profiles()

	if err := p.ReplaceTags(context.Background(), model.TagKind("profiles"), "u1", nil); err == nil {
		t.Fatal("ReplaceTags() should reject an unknown collection")
	}
}

func TestReplaceTags_RequiresProfileRow(t *testing.T) {
	p := newTestDB(t).Profiles()

	// foreign_keys=ON: child rows cannot exist without their profile.
	if err := p.ReplaceTags(context.Background(), model.TagSkills, "ghost", []string{"Go"}); err == nil {
		t.Fatal("ReplaceTags() should fail for a profile that does not exist")
	}
}

// TestReplaceTags_ConcurrentReplacesNeverMerge fires overlapping replaces of
// the same collection. Whatever the interleaving, the survivor must be
// exactly one of the submitted sets.
func TestReplaceTags_ConcurrentReplacesNeverMerge(t *testing.T) {
	p := newTestDB(t).Profiles()
	ctx := context.Background()
	upsertTestProfile(t, p, "u1", model.ProfilePatch{})

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, set := range [][]string{{"A"}, {"B"}} {
			wg.Add(1)
			go func(names []string) {
				defer wg.Done()
				errs <- p.ReplaceTags(ctx, model.TagSkills, "u1", names)
			}(set)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("round %d: ReplaceTags() error = %v", round, err)
			}
		}

		got := listTags(t, p, model.TagSkills, "u1")
		if !reflect.DeepEqual(got, []string{"A"}) && !reflect.DeepEqual(got, []string{"B"}) {
			t.Fatalf("round %d: skills = %v, want [A] or [B]", round, got)
		}
	}
}

// =========================================================================
// TRANSACTION TESTS
// =========================================================================

func TestWithinTx_CommitsAllWrites(t *testing.T) {
	p := newTestDB(t).Profiles()
	ctx := context.Background()

	err := p.WithinTx(ctx, func(repo repository.ProfileRepository) error {
		if err := repo.UpsertProfile(ctx, "u1", "u1@example.com", model.ProfilePatch{Name: model.StringPtr("Ada")}, time.Now()); err != nil {
			return err
		}
		return repo.ReplaceTags(ctx, model.TagSkills, "u1", []string{"Go"})
	})
	if err != nil {
		t.Fatalf("WithinTx() error = %v", err)
	}

	if got := listTags(t, p, model.TagSkills, "u1"); !reflect.DeepEqual(got, []string{"Go"}) {
		t.Errorf("skills = %v, want [Go]", got)
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	p := newTestDB(t).Profiles()
	ctx := context.Background()
	boom := fmt.Errorf("boom")

	err := p.WithinTx(ctx, func(repo repository.ProfileRepository) error {
		if err := repo.UpsertProfile(ctx, "u1", "u1@example.com", model.ProfilePatch{Name: model.StringPtr("Ada")}, time.Now()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx() error = %v, want boom", err)
	}

	if _, err := p.GetProfile(ctx, "u1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("profile should not exist after rollback, got err = %v", err)
	}
}
