package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"status":"ok","version":"1.2.3"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/"})
	health, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "ok" || health.Version != "1.2.3" {
		t.Errorf("health = %+v", health)
	}
}

func TestClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"Service area not found"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.ServiceAreas().Get(context.Background(), 7)

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %T %v, want *APIError", err, err)
	}
	if !apiErr.IsNotFound() || apiErr.Code != "NOT_FOUND" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestAsAPIError(t *testing.T) {
	wrapped := fmt.Errorf("listing areas: %w", &APIError{StatusCode: http.StatusBadGateway, Message: "upstream down"})

	apiErr, ok := AsAPIError(wrapped)
	if !ok {
		t.Fatalf("AsAPIError(%v) found nothing", wrapped)
	}
	if !apiErr.IsServerError() || apiErr.IsValidationError() {
		t.Errorf("predicates wrong for %+v", apiErr)
	}
	if got, want := apiErr.Error(), "502 Bad Gateway: upstream down"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if _, ok := AsAPIError(fmt.Errorf("dial tcp: refused")); ok {
		t.Error("AsAPIError matched a transport error")
	}
}

func TestClient_AuthHeader(t *testing.T) {
	tests := []struct {
		name  string
		token string
		api   string
		want  string
	}{
		{"jwt", "abc", "", "Bearer abc"},
		{"api token", "", "k123", "Token k123"},
		{"jwt wins", "abc", "k123", "Bearer abc"},
		{"anonymous", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				w.Write([]byte(`{"success":true,"data":{"results":[],"count":0}}`))
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL, APIToken: tt.api})
			c.SetToken(tt.token)
			if _, err := c.Services().List(context.Background(), &ListOptions{Page: 2}); err != nil {
				t.Fatalf("List: %v", err)
			}
			if got != tt.want {
				t.Errorf("Authorization = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListQuery(t *testing.T) {
	if got := listQuery(nil); got != "" {
		t.Errorf("listQuery(nil) = %q", got)
	}
	if got := listQuery(&ListOptions{Page: 2, PageSize: 10, Lang: "ar"}); got != "?lang=ar&page=2&page_size=10" {
		t.Errorf("listQuery = %q", got)
	}
}
