package workers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckLiveListingExtractsPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write([]byte(`<html><body><div class="price">€ 1.095,- per maand</div></body></html>`))
		}
	}))
	defer srv.Close()

	w := NewHealthcheckWorker(nil, time.Hour)
	result := w.Check(context.Background(), srv.URL+"/woning/1")
	if result.Error != nil {
		t.Fatalf("Check: %v", result.Error)
	}
	if !result.IsLive {
		t.Fatal("expected live listing")
	}
	if result.CurrentPrice != 1095 {
		t.Fatalf("price = %d, want 1095", result.CurrentPrice)
	}
}

func TestCheckGoneListing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	w := NewHealthcheckWorker(nil, time.Hour)
	result := w.Check(context.Background(), srv.URL+"/woning/1")
	if result.Error != nil {
		t.Fatalf("Check: %v", result.Error)
	}
	if result.IsLive {
		t.Fatal("404 must read as delisted")
	}
	if result.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", result.StatusCode)
	}
}

func TestCheckRedirectToOverview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/woningaanbod")
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	w := NewHealthcheckWorker(nil, time.Hour)
	result := w.Check(context.Background(), srv.URL+"/woning/1")
	if result.Error != nil {
		t.Fatalf("Check: %v", result.Error)
	}
	if result.IsLive {
		t.Fatal("redirect to the overview must read as delisted")
	}
}

func TestIsDelistRedirect(t *testing.T) {
	cases := []struct {
		location string
		want     bool
	}{
		{"https://www.grunoverhuur.nl/woningaanbod", true},
		{"/huurwoningen/", true},
		{"/woning/oosterstraat-24", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isDelistRedirect(tc.location); got != tc.want {
			t.Fatalf("isDelistRedirect(%q) = %v, want %v", tc.location, got, tc.want)
		}
	}
}
