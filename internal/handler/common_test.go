package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/vns-shanshan/cineverse-api/internal/domain"
	"github.com/vns-shanshan/cineverse-api/internal/repository"
)

func newCtx(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var m map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKey    string
		wantMsg    string
	}{
		{"validation", &domain.ValidationError{Fields: []string{"genre"}}, http.StatusBadRequest, "err", "invalid or missing fields: genre"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "err", "unauthorized"},
		{"forbidden", repository.ErrForbidden, http.StatusForbidden, "message", "You are not allowed to update this movie."},
		{"movie missing", repository.ErrMovieNotFound, http.StatusNotFound, "err", "Movie not found."},
		{"comment missing", repository.ErrCommentNotFound, http.StatusNotFound, "err", "Comment not found."},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "err", "disk on fire"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newCtx(t)
			if err := serviceError(c, tc.err, "You are not allowed to update this movie."); err != nil {
				t.Fatalf("serviceError: %v", err)
			}
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			body := decodeBody(t, rec)
			if body[tc.wantKey] != tc.wantMsg {
				t.Fatalf("body = %v, want %q=%q", body, tc.wantKey, tc.wantMsg)
			}
		})
	}
}

func TestServiceErrorWrappedUploadFailure(t *testing.T) {
	c, rec := newCtx(t)
	wrapped := errors.Join(domain.ErrUploadFailed, errors.New("bucket unreachable"))
	if err := serviceError(c, wrapped, ""); err != nil {
		t.Fatalf("serviceError: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestPathID(t *testing.T) {
	cases := []struct {
		in     string
		wantID uint64
		wantOK bool
	}{
		{"17", 17, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		c, _ := newCtx(t)
		c.SetParamNames("movieId")
		c.SetParamValues(tc.in)
		id, ok := pathID(c, "movieId")
		if id != tc.wantID || ok != tc.wantOK {
			t.Errorf("pathID(%q) = (%d, %v), want (%d, %v)", tc.in, id, ok, tc.wantID, tc.wantOK)
		}
	}
}
