package infra

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractMarker(t *testing.T) {
	query := "--sql 0b8f8f8e-1a2b-4c3d-9e8f-0a1b2c3d4e5f\nselect 1;\n"
	marker, body, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker error: %v", err)
	}
	if marker != "0b8f8f8e-1a2b-4c3d-9e8f-0a1b2c3d4e5f" {
		t.Fatalf("marker = %q", marker)
	}
	if strings.TrimSpace(body) != "select 1;" {
		t.Fatalf("body = %q", body)
	}
}

func TestExtractMarkerRejectsUnmarkedQueries(t *testing.T) {
	for _, query := range []string{"", "select 1;", "--sql nope\nselect 1;", "--sql 0b8f8f8e-1a2b-4c3d-9e8f-0a1b2c3d4e5f"} {
		if _, _, err := extractMarker(query); !errors.Is(err, errMarker) {
			t.Fatalf("extractMarker(%q) err = %v, want errMarker", query, err)
		}
	}
}
