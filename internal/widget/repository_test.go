package widget

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	if _, err := r.Get(ctx, "org-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty repo error = %v, want ErrNotFound", err)
	}
	if err := r.MarkPublished(ctx, "org-1", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkPublished error = %v, want ErrNotFound", err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := Defaults()
	d, err := r.Upsert(ctx, "org-1", cfg, at)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if d.Version != 1 || !d.UpdatedAt.Equal(at) || d.OrgID != "org-1" {
		t.Errorf("draft = %+v, want version 1 at %v", d, at)
	}

	cfg.DevSettings.Social["github"] = true
	if got, _ := r.Get(ctx, "org-1"); got.Config.DevSettings.Social["github"] {
		t.Error("stored draft must not alias the caller's map")
	}

	d, _ = r.Upsert(ctx, "org-1", cfg, at.Add(time.Minute))
	if d.Version != 2 {
		t.Errorf("Version = %d, want 2", d.Version)
	}

	pub := at.Add(time.Hour)
	if err := r.MarkPublished(ctx, "org-1", pub); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	got, err := r.Get(ctx, "org-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(pub) {
		t.Errorf("PublishedAt = %v, want %v", got.PublishedAt, pub)
	}
	if !got.Config.DevSettings.Social["github"] {
		t.Error("second upsert should be visible")
	}
}

func TestMemoryLogoStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLogoStore()
	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrLogoNotFound) {
		t.Errorf("Get missing error = %v, want ErrLogoNotFound", err)
	}
	data := []byte("<svg/>")
	if err := s.Put(ctx, "org/a.svg", data, "image/svg+xml"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data[0] = 'X'
	got, ct, err := s.Get(ctx, "org/a.svg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "<svg/>" || ct != "image/svg+xml" {
		t.Errorf("Get = %q %q, want <svg/> image/svg+xml", got, ct)
	}
}
