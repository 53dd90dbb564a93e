package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pep299/trends-dashboard/internal/gcstest"
)

func TestObjectName(t *testing.T) {
	date := time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC)
	tests := []struct {
		group    string
		expected string
	}{
		{"celulares", "celulares/2024-05-31/grafico_CL_2024-05-31.png"},
		{"top phones", "top-phones/2024-05-31/grafico_CL_2024-05-31.png"},
		{"/x/", "x/2024-05-31/grafico_CL_2024-05-31.png"},
		{"", "manual/2024-05-31/grafico_CL_2024-05-31.png"},
	}
	for _, tt := range tests {
		if got := ObjectName(tt.group, date, "grafico_CL_2024-05-31.png"); got != tt.expected {
			t.Errorf("For group '%s', expected '%s', got '%s'", tt.group, tt.expected, got)
		}
	}
}

func TestNoop(t *testing.T) {
	var store Store = Noop{}
	ctx := context.Background()

	if _, err := store.Put(ctx, "a.csv", "text/csv", []byte("x")); !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled from Put, got %v", err)
	}
	if _, err := store.List(ctx, ""); !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled from List, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Expected Close to succeed, got %v", err)
	}
}

func TestGCSStore_URL(t *testing.T) {
	s := &GCSStore{bucketName: "exports-bucket", prefix: "exports/"}
	tests := []struct {
		objectName string
		expected   string
	}{
		{"exports/a.csv", "gs://exports-bucket/exports/a.csv"},
		{"exports/celulares/2024-05-31/grafico_CL_2024-05-31.png", "gs://exports-bucket/exports/celulares/2024-05-31/grafico_CL_2024-05-31.png"},
	}
	for _, tt := range tests {
		if got := s.url(tt.objectName); got != tt.expected {
			t.Errorf("For '%s', expected '%s', got '%s'", tt.objectName, tt.expected, got)
		}
	}
}

func TestGCSStore(t *testing.T) {
	srv := gcstest.NewServer(t)
	ctx := context.Background()
	store, err := NewGCSStore(ctx, "exports-bucket", srv.ClientOptions()...)
	if err != nil {
		t.Fatalf("NewGCSStore failed: %v", err)
	}
	defer store.Close()

	date := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	uploads := []struct {
		group, file, contentType, body string
	}{
		{"celulares", "tendencias_CL_2024-05-31.csv", "text/csv", "date,a\n2024-05-31,1\n"},
		{"celulares", "grafico_CL_2024-05-31.png", "image/png", "png"},
		{"", "tendencias_AR_2024-05-31.csv", "text/csv", "date,b\n"},
	}
	for _, u := range uploads {
		name := ObjectName(u.group, date, u.file)
		url, err := store.Put(ctx, name, u.contentType, []byte(u.body))
		if err != nil {
			t.Fatalf("Put %s failed: %v", name, err)
		}
		if expected := "gs://exports-bucket/exports/" + name; url != expected {
			t.Errorf("Expected URL '%s', got '%s'", expected, url)
		}
		data, ok := srv.Object("exports-bucket", "exports/"+name)
		if !ok || string(data) != u.body {
			t.Errorf("Expected stored body %q for %s, got %q", u.body, name, data)
		}
	}

	objects, err := store.List(ctx, "celulares/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("Expected 2 objects, got %d", len(objects))
	}
	first := objects[0]
	if first.Name != "celulares/2024-05-31/grafico_CL_2024-05-31.png" {
		t.Errorf("Expected name without store prefix, got '%s'", first.Name)
	}
	if first.URL != "gs://exports-bucket/exports/"+first.Name {
		t.Errorf("Unexpected URL '%s'", first.URL)
	}
	if first.ContentType != "image/png" || first.Size != 3 || first.Created.IsZero() {
		t.Errorf("Unexpected attributes %+v", first)
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 objects, got %d", len(all))
	}
}
