package objectstore

import (
	"errors"
	"testing"

	"github.com/dharsanguruparan/picktoss/internal/config"
)

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("s3://notes/week1/algebra.md")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if loc.Bucket != "notes" || loc.Key != "week1/algebra.md" {
		t.Fatalf("unexpected location %+v", loc)
	}
	if loc.Name() != "algebra.md" || loc.String() != "s3://notes/week1/algebra.md" {
		t.Fatalf("unexpected name/string %q %q", loc.Name(), loc.String())
	}

	for _, bad := range []string{"s3://notes", "s3://notes/", "http://notes/a.md", "s3:///a.md"} {
		if _, err := ParseLocation(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestIsLocation(t *testing.T) {
	if !IsLocation("s3://b/k.md") || IsLocation("./notes/k.md") {
		t.Fatalf("IsLocation misclassified input")
	}
}

func TestNewRequiresEndpoint(t *testing.T) {
	if _, err := New(config.Default(), 0); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	cfg := config.Default()
	cfg.S3Endpoint = "localhost:9000"
	if _, err := New(cfg, 1024); err != nil {
		t.Fatalf("new: %v", err)
	}
}
