package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deojon/studio/internal/services"
	"github.com/deojon/studio/internal/store"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		url     string
		want    store.Query
		wantErr bool
	}{
		{"/board", store.Query{SortBy: store.SortLatest, Page: 1, Limit: 10}, false},
		{"/board?keyword=%20hello%20&sortBy=views&page=2&limit=5", store.Query{Keyword: "hello", SortBy: store.SortViews, Page: 2, Limit: 5}, false},
		{"/board?per_page=500", store.Query{SortBy: store.SortLatest, Page: 1, Limit: store.MaxLimit}, false},
		{"/board?page=0", store.Query{}, true},
		{"/board?limit=abc", store.Query{}, true},
		{"/board?sortBy=popular", store.Query{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := parseQuery(httptest.NewRequest(http.MethodGet, tt.url, nil))
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error %v", err)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestWriteServiceErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: title", services.ErrValidation), http.StatusBadRequest},
		{services.ErrNoSession, http.StatusUnauthorized},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrUnauthorized, http.StatusForbidden},
		{store.ErrNotFound, http.StatusNotFound},
		{services.ErrIDUnavailable, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, tt.err, "failed")
		if rec.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, rec.Code)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("secret")
	token, err := issueToken("kim", secret, time.Minute)
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}
	subject, err := parseTokenSubject(token, secret)
	if err != nil || subject != "kim" {
		t.Fatalf("expected subject kim, got %q (%v)", subject, err)
	}
	if _, err := parseTokenSubject(token, []byte("other")); err == nil {
		t.Fatal("expected a foreign secret to be rejected")
	}

	expired, _ := issueToken("kim", secret, -time.Minute)
	if _, err := parseTokenSubject(expired, secret); err == nil {
		t.Fatal("expected an expired token to be rejected")
	}
}
