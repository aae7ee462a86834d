package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelpost/internal/poster/tmdb"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
	if _, err := tmdb.New("key", " ", "en-US"); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestSearchMovieSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "key" {
			t.Errorf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		if q.Get("query") != "Leo" || q.Get("year") != "2023" {
			t.Errorf("unexpected search params %q", r.URL.RawQuery)
		}
		if q.Get("language") != "en-US" || q.Get("include_adult") != "false" {
			t.Errorf("missing language/include_adult in %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"Leo","release_date":"2023-10-19","poster_path":"/leo.jpg"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL+"/", "en-US")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.SearchMovie(context.Background(), "Leo", tmdb.SearchOptions{Year: 2023})
	if err != nil {
		t.Fatalf("SearchMovie returned error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].PosterPath != "/leo.jpg" {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestSearchMovieOmitsYearWhenUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("year") {
			t.Errorf("year should be omitted, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovie(context.Background(), "Nomad", tmdb.SearchOptions{}); err != nil {
		t.Fatalf("SearchMovie returned error: %v", err)
	}
}

func TestSearchMovieHTTPError(t *testing.T) {
	cases := []struct {
		status    int
		temporary bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusTooManyRequests, true},
		{http.StatusUnauthorized, false},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"status_code":7}`))
			}))
			t.Cleanup(server.Close)

			client, err := tmdb.New("key", server.URL, "")
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			_, err = client.SearchMovie(context.Background(), "fail", tmdb.SearchOptions{})
			var statusErr *tmdb.StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if statusErr.StatusCode != tc.status || statusErr.Temporary() != tc.temporary {
				t.Fatalf("unexpected status error %#v", statusErr)
			}
		})
	}
}

func TestSearchMovieEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovie(context.Background(), "  ", tmdb.SearchOptions{}); err == nil {
		t.Fatal("expected error for empty query")
	}
}
