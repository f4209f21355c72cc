package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const litePage = `<html><body><table>
<tr><td><a rel="nofollow" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fearthquake.usgs.gov%2Ffdsnws%2Fevent%2F1%2F&rut=x" class='result-link'>USGS Earthquake API</a></td></tr>
<tr><td class='result-snippet'>The FDSN event <b>web service</b> returns quakes.</td></tr>
<tr><td><a href="https://example.org/quakes" class="result-link">Quake map</a></td></tr>
<tr><td class="result-snippet">Recent   earthquakes</td></tr>
<tr><td><a href="https://third.example.org" class="result-link">Third</a></td></tr>
</table></body></html>`

func TestDuckDuckGoParsesLite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("q") != "earthquake api" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		w.Write([]byte(litePage))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(srv.Client())
	d.endpoint = srv.URL
	got, err := d.Search(context.Background(), "earthquake api", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].URL != "https://earthquake.usgs.gov/fdsnws/event/1/" || got[0].Rank != 1 {
		t.Fatalf("first = %+v", got[0])
	}
	if got[0].Snippet != "The FDSN event web service returns quakes." {
		t.Fatalf("snippet = %q", got[0].Snippet)
	}
	if got[1].Snippet != "Recent earthquakes" || got[1].Rank != 2 {
		t.Fatalf("second = %+v", got[1])
	}
}

func TestDuckDuckGoRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(srv.Client())
	d.endpoint = srv.URL
	if _, err := d.Search(context.Background(), "q", 5); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v", err)
	}
}

func TestDuckDuckGoEmptyQuery(t *testing.T) {
	if _, err := NewDuckDuckGo(nil).Search(context.Background(), "  ", 5); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTavily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"title":"A","url":"https://a","content":"x"},{"title":"B","url":"https://b","content":"y"}]}`))
	}))
	defer srv.Close()

	tv := NewTavily("key", srv.Client())
	tv.endpoint = srv.URL
	got, err := tv.Search(context.Background(), "q", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Title != "A" || got[0].Rank != 1 {
		t.Fatalf("got %+v", got)
	}
	if _, err := NewTavily("", nil).Search(context.Background(), "q", 1); err == nil {
		t.Fatalf("expected missing key error")
	}
}
