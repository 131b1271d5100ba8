package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wilwatikta/aduana-go/internal/testutil"
)

func TestFetchExtractsLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><a href="/b">b</a><a href="https://other.example/c#frag">c</a></body></html>`))
	}))
	defer srv.Close()

	f := New(testutil.Slogger(t))
	page, err := f.Fetch(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatal(err)
	}
	if page.URL != srv.URL+"/" {
		t.Fatalf("URL = %q, want %q", page.URL, srv.URL+"/")
	}
	if len(page.ContentHash) != 8 {
		t.Fatalf("ContentHash length = %d, want 8", len(page.ContentHash))
	}
	if len(page.Links) != 2 {
		t.Fatalf("Links = %v, want 2 entries", page.Links)
	}
	if page.Links[0].URL != srv.URL+"/b" {
		t.Fatalf("Links[0].URL = %q, want %q", page.Links[0].URL, srv.URL+"/b")
	}
	if page.Links[1].URL != "https://other.example/c" {
		t.Fatalf("Links[1].URL = %q, want fragment stripped", page.Links[1].URL)
	}
}

func TestFetchNonHTMLStillHashes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text, no links here"))
	}))
	defer srv.Close()

	f := New(testutil.Slogger(t))
	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Links) != 0 {
		t.Fatalf("Links = %v, want none", page.Links)
	}
	if page.Score != 1 {
		t.Fatalf("Score = %v, want 1 for 200 response", page.Score)
	}
}
