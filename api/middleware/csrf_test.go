package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCSRF(t *testing.T) {
	handler := CSRF(true, nil)(okHandler())

	cases := []struct {
		name   string
		method string
		header string
		cookie string
		want   int
	}{
		{"get skips check", http.MethodGet, "", "", http.StatusOK},
		{"missing header", http.MethodPost, "", "abc", http.StatusForbidden},
		{"missing cookie", http.MethodPost, "abc", "", http.StatusForbidden},
		{"mismatch", http.MethodPost, "abc", "abd", http.StatusForbidden},
		{"match", http.MethodPost, "abc", "abc", http.StatusOK},
		{"delete match", http.MethodDelete, "xyz", "xyz", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/v1/cart/items", nil)
			if tc.header != "" {
				req.Header.Set(csrfHeader, tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookie, Value: tc.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestCSRFDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	CSRF(false, nil)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestIssueCSRFToken(t *testing.T) {
	rec := httptest.NewRecorder()
	token, err := IssueCSRFToken(rec, false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != csrfCookie || cookies[0].Value != token {
		t.Fatalf("unexpected cookies %v", cookies)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(csrfHeader, token)
	req.AddCookie(cookies[0])
	out := httptest.NewRecorder()
	CSRF(true, nil)(okHandler()).ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("expected issued token to pass, got %d", out.Code)
	}
}
