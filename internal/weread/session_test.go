package weread

import (
	"errors"
	"testing"
)

func TestParseCookies(t *testing.T) {
	cookies := ParseCookies("wr_vid=123; wr_skey=abc=; ; broken; =empty; wr_name= reader ")

	want := map[string]string{
		"wr_vid":  "123",
		"wr_skey": "abc=",
		"wr_name": "reader",
	}
	if len(cookies) != len(want) {
		t.Fatalf("expected %d cookies, got %d", len(want), len(cookies))
	}
	for _, c := range cookies {
		if want[c.Name] != c.Value {
			t.Errorf("cookie %s = %q, want %q", c.Name, c.Value, want[c.Name])
		}
	}
}

func TestNewSession_RequiresCookies(t *testing.T) {
	if _, err := NewSession(SessionConfig{Cookie: "  "}); err == nil {
		t.Error("expected error for empty credential string")
	}
}

func TestDecodeResponse(t *testing.T) {
	t.Run("expiry errCode", func(t *testing.T) {
		var out notebooksResponse
		err := decodeResponse([]byte(`{"errCode": -2012, "errMsg": "登录超时"}`), schemaNotebooks, &out)
		if !errors.Is(err, ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("other errCode", func(t *testing.T) {
		var out notebooksResponse
		err := decodeResponse([]byte(`{"errCode": -2010, "errMsg": "user not exist"}`), schemaNotebooks, &out)
		if !errors.Is(err, ErrAPI) {
			t.Errorf("expected ErrAPI, got %v", err)
		}
	})

	t.Run("missing required key", func(t *testing.T) {
		var out reviewListResponse
		err := decodeResponse([]byte(`{"synckey": 1}`), schemaReviews, &out)
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("not json", func(t *testing.T) {
		var out reviewListResponse
		err := decodeResponse([]byte(`<html>`), schemaReviews, &out)
		if !errors.Is(err, ErrNotJSON) {
			t.Errorf("expected ErrNotJSON, got %v", err)
		}
		if !retryable(err) || !sessionInvalid(err) {
			t.Errorf("non-JSON body should be retried with a session refresh")
		}
	})

	t.Run("valid", func(t *testing.T) {
		var out notebooksResponse
		err := decodeResponse([]byte(`{"books": [{"bookId": "1", "sort": 3, "book": {"title": "T"}}]}`), schemaNotebooks, &out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Books) != 1 || out.Books[0].Book.Title != "T" {
			t.Errorf("unexpected decode result: %+v", out)
		}
	})
}
