package tcg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestMTGFetchMetadata(t *testing.T) {
	blob := `[{"id": "c1", "image_uris": {"png": "https://img.example/c1.png"}}]`
	var mux *http.ServeMux
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
	}))
	defer srv.Close()

	mux = http.NewServeMux()
	mux.HandleFunc("/bulk-data", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != UserAgent {
			t.Errorf("unexpected user agent: %s", got)
		}
		resp := bulkDataResponse{Data: []bulkDataItem{
			{Type: "oracle_cards", DownloadURI: srv.URL + "/oracle.json"},
			{Type: "all_cards", DownloadURI: srv.URL + "/all.json"},
		}}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/all.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, blob)
	})

	dir := t.TempDir()
	src := NewMTGSource(0)
	src.baseURL = srv.URL + "/bulk-data"

	path, err := src.FetchMetadata(context.Background(), dir)
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}
	if path != filepath.Join(dir, "mtg_cards.json") {
		t.Errorf("unexpected metadata path: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != blob {
		t.Errorf("unexpected metadata content: %s", data)
	}
}

func TestMTGFetchMetadataReusesExisting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "mtg_cards.json")
	if err := os.WriteFile(existing, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Any request means the existing file was not reused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s", r.URL.Path)
	}))
	defer srv.Close()

	src := NewMTGSource(0)
	src.baseURL = srv.URL + "/bulk-data"

	path, err := src.FetchMetadata(context.Background(), dir)
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}
	if path != existing {
		t.Errorf("expected existing path %s, got %s", existing, path)
	}
}

func TestMTGFetchMetadataMissingAllCards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(bulkDataResponse{Data: []bulkDataItem{
			{Type: "oracle_cards", DownloadURI: "https://img.example/x"},
		}})
	}))
	defer srv.Close()

	src := NewMTGSource(0)
	src.baseURL = srv.URL

	if _, err := src.FetchMetadata(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error when all_cards type is absent")
	}
}

func TestGAFetchMetadata(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cards/all", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]gaCard{
			{Name: "Lorraine", Slug: "lorraine"},
			{Name: "Rai", Slug: "rai"},
		})
	})
	mux.HandleFunc("/cards/lorraine", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gaCardDetail{Name: "Lorraine", Editions: []gaEdition{
			{Slug: "lorraine-1st", Image: "/img/lorraine-1st.jpg"},
			{Slug: "lorraine-alt", Image: "/img/lorraine-alt.jpg"},
		}})
	})
	mux.HandleFunc("/cards/rai", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gaCardDetail{Name: "Rai", Editions: []gaEdition{
			{Slug: "rai-1st", Image: "/img/rai-1st.jpg"},
		}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	src := NewGASource(0)
	src.baseURL = srv.URL

	path, err := src.FetchMetadata(context.Background(), dir)
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}

	cards, err := LoadCards(path, FormatGA)
	if err != nil {
		t.Fatalf("LoadCards failed: %v", err)
	}
	// One record per edition, with absolute image URLs.
	if len(cards) != 3 {
		t.Fatalf("expected 3 edition records, got %d", len(cards))
	}
	seen := map[string]string{}
	for _, c := range cards {
		seen[c.ID] = c.ImageURL
	}
	if seen["lorraine-1st"] != srv.URL+"/img/lorraine-1st.jpg" {
		t.Errorf("unexpected image url: %s", seen["lorraine-1st"])
	}
	if _, ok := seen["rai-1st"]; !ok {
		t.Error("missing rai-1st edition")
	}
}

func TestGAFetchMetadataDetailFailureIsNonFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cards/all", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]gaCard{
			{Name: "Good", Slug: "good"},
			{Name: "Bad", Slug: "bad"},
		})
	})
	mux.HandleFunc("/cards/good", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gaCardDetail{Editions: []gaEdition{{Slug: "good-1st", Image: "/img/good.jpg"}}})
	})
	mux.HandleFunc("/cards/bad", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewGASource(0)
	src.baseURL = srv.URL

	path, err := src.FetchMetadata(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}
	cards, err := LoadCards(path, FormatGA)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 1 || cards[0].ID != "good-1st" {
		t.Fatalf("expected only the good edition, got %+v", cards)
	}
}
