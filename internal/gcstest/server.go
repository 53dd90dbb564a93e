// Package gcstest provides an in-memory Cloud Storage server for tests.
package gcstest

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"
)

// Server fakes the subset of the JSON API used by the storage client for
// uploads, reads, attributes, listing and deletes.
type Server struct {
	srv *httptest.Server

	mu      sync.Mutex
	objects map[string]*object
}

type object struct {
	bucket      string
	name        string
	contentType string
	data        []byte
	created     time.Time
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{objects: map[string]*object{}}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

// ClientOptions points a storage client at the server.
func (s *Server) ClientOptions() []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(s.srv.URL + "/storage/v1/"),
		option.WithoutAuthentication(),
	}
}

// Object returns the stored bytes of bucket/name.
func (s *Server) Object(bucket, name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[bucket+"/"+name]
	if !ok {
		return nil, false
	}
	return o.data, true
}

// Names lists the object names stored in bucket.
func (s *Server) Names(bucket string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, o := range s.objects {
		if o.bucket == bucket {
			names = append(names, o.name)
		}
	}
	sort.Strings(names)
	return names
}

// Put stores an object directly.
func (s *Server) Put(bucket, name, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+name] = &object{
		bucket:      bucket,
		name:        name,
		contentType: contentType,
		data:        data,
		created:     time.Now().UTC(),
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/upload/storage/v1/b/"):
		bucket, _, _ := strings.Cut(strings.TrimPrefix(path, "/upload/storage/v1/b/"), "/")
		s.upload(w, r, bucket)
	case strings.HasPrefix(path, "/storage/v1/b/"):
		bucket, rest, _ := strings.Cut(strings.TrimPrefix(path, "/storage/v1/b/"), "/")
		switch {
		case rest == "o" && r.Method == http.MethodGet:
			s.list(w, bucket, r.URL.Query().Get("prefix"))
		case strings.HasPrefix(rest, "o/"):
			name := strings.TrimPrefix(rest, "o/")
			switch {
			case r.Method == http.MethodDelete:
				s.delete(w, bucket, name)
			case r.URL.Query().Get("alt") == "media":
				s.media(w, bucket, name)
			default:
				s.attrs(w, bucket, name)
			}
		default:
			notFound(w)
		}
	default:
		// XML API reads: /<bucket>/<object>
		bucket, name, ok := strings.Cut(strings.TrimPrefix(path, "/"), "/")
		if !ok || r.Method != http.MethodGet {
			notFound(w)
			return
		}
		s.media(w, bucket, name)
	}
}

func (s *Server) get(bucket, name string) (*object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[bucket+"/"+name]
	return o, ok
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, bucket string) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		http.Error(w, "expected multipart upload", http.StatusBadRequest)
		return
	}

	mr := multipart.NewReader(r.Body, params["boundary"])
	metaPart, err := mr.NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var meta struct {
		Name        string `json:"name"`
		ContentType string `json:"contentType"`
	}
	if err := json.NewDecoder(metaPart).Decode(&meta); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mediaPart, err := mr.NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(mediaPart)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if meta.Name == "" {
		meta.Name = r.URL.Query().Get("name")
	}
	if meta.ContentType == "" {
		meta.ContentType = mediaPart.Header.Get("Content-Type")
	}
	s.Put(bucket, meta.Name, meta.ContentType, data)

	o, _ := s.get(bucket, meta.Name)
	writeJSON(w, http.StatusOK, resource(o))
}

func (s *Server) list(w http.ResponseWriter, bucket, prefix string) {
	s.mu.Lock()
	items := []map[string]string{}
	for _, o := range s.objects {
		if o.bucket == bucket && strings.HasPrefix(o.name, prefix) {
			items = append(items, resource(o))
		}
	}
	s.mu.Unlock()

	sort.Slice(items, func(i, j int) bool { return items[i]["name"] < items[j]["name"] })
	writeJSON(w, http.StatusOK, map[string]any{"kind": "storage#objects", "items": items})
}

func (s *Server) attrs(w http.ResponseWriter, bucket, name string) {
	o, ok := s.get(bucket, name)
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, resource(o))
}

func (s *Server) media(w http.ResponseWriter, bucket, name string) {
	o, ok := s.get(bucket, name)
	if !ok {
		notFound(w)
		return
	}
	w.Header().Set("Content-Type", o.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(o.data)))
	w.Header().Set("X-Goog-Generation", "1")
	w.Header().Set("X-Goog-Metageneration", "1")
	w.WriteHeader(http.StatusOK)
	w.Write(o.data)
}

func (s *Server) delete(w http.ResponseWriter, bucket, name string) {
	s.mu.Lock()
	_, ok := s.objects[bucket+"/"+name]
	delete(s.objects, bucket+"/"+name)
	s.mu.Unlock()

	if !ok {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resource renders o the way the JSON API does; numeric fields are strings.
func resource(o *object) map[string]string {
	created := o.created.Format(time.RFC3339Nano)
	return map[string]string{
		"kind":           "storage#object",
		"id":             o.bucket + "/" + o.name + "/1",
		"bucket":         o.bucket,
		"name":           o.name,
		"contentType":    o.contentType,
		"size":           strconv.Itoa(len(o.data)),
		"generation":     "1",
		"metageneration": "1",
		"timeCreated":    created,
		"updated":        created,
	}
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": map[string]any{"code": http.StatusNotFound, "message": "No such object"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
