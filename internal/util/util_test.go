package util

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testgen_backend/internal/model"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("user 1: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: %v", ErrConflict, ErrSessionClosed), http.StatusConflict},
		{ErrForbidden, http.StatusForbidden},
		{errors.Join(ErrUnauthenticated, errors.New("token expired")), http.StatusUnauthorized},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: %v", ErrValidation, ErrTooManyOptions), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusOf(tc.err); got != tc.want {
			t.Fatalf("StatusOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func testContext(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return c
}

func TestHandleErrorHidesStoreDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/tests", nil)

	HandleError(c, errors.Join(ErrUnavailable, errors.New("dial tcp 10.0.0.7:3306: connection refused")))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "10.0.0.7") || !strings.Contains(body, ErrUnavailable.Error()) {
		t.Fatalf("unexpected body %s", body)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/tests/9", nil)
	HandleError(c, fmt.Errorf("test 9: %w", ErrNotFound))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "test 9") {
		t.Fatalf("not found: %d %s", w.Code, w.Body.String())
	}
}

func TestPagination(t *testing.T) {
	limit, offset, err := Pagination(testContext(""))
	if err != nil || limit != DefaultLimit || offset != DefaultOffset {
		t.Fatalf("defaults: %d %d %v", limit, offset, err)
	}

	limit, offset, err = Pagination(testContext("limit=5000&offset=20"))
	if err != nil || limit != 5000 || offset != 20 {
		t.Fatalf("explicit: %d %d %v", limit, offset, err)
	}

	for _, q := range []string{"limit=-1", "offset=abc", "limit=1.5"} {
		if _, _, err := Pagination(testContext(q)); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", q, err)
		}
	}
}

func TestQueryHelpers(t *testing.T) {
	c := testContext("approved_only=true&document_id=7&bad=x&ids=3,%204,,5")

	if v, err := QueryBool(c, "approved_only", false); err != nil || !v {
		t.Fatalf("QueryBool: %v %v", v, err)
	}
	if v, _ := QueryBool(c, "missing", true); !v {
		t.Fatalf("QueryBool default not applied")
	}
	if _, err := QueryBool(c, "bad", false); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	id, err := QueryUintPtr(c, "document_id")
	if err != nil || id == nil || *id != 7 {
		t.Fatalf("QueryUintPtr: %v %v", id, err)
	}
	if id, _ := QueryUintPtr(c, "missing"); id != nil {
		t.Fatalf("missing parameter should be nil")
	}

	ids, err := ParseIDList(c.Query("ids"))
	if err != nil || len(ids) != 3 || ids[2] != 5 {
		t.Fatalf("ParseIDList: %v %v", ids, err)
	}
	if _, err := ParseIDList("1,x"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPlainIssuerRoundTrip(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 12}, Email: "first_last@example.com"}
	var issuer PlainIssuer

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token != "user_12_first_last@example.com" {
		t.Fatalf("unexpected token %s", token)
	}
	id, err := issuer.Parse(token)
	if err != nil || id.UserID != 12 || id.Email != user.Email {
		t.Fatalf("parse: %+v %v", id, err)
	}

	for _, bad := range []string{"", "user_12", "admin_12_a@b.c", "user_x_a@b.c", "user_0_a@b.c", "user_12_"} {
		if _, err := issuer.Parse(bad); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("%q: expected ErrUnauthenticated, got %v", bad, err)
		}
	}
}

func TestJWTIssuer(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 3}, Email: "t@example.com"}
	issuer := NewJWTIssuer(strings.Repeat("k", 32), time.Hour)

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := issuer.Parse(token)
	if err != nil || id.UserID != 3 || id.Email != user.Email {
		t.Fatalf("parse: %+v %v", id, err)
	}

	expired := NewJWTIssuer(strings.Repeat("k", 32), -time.Minute)
	old, _ := expired.Issue(user)
	if _, err := issuer.Parse(old); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
	if _, err := issuer.Parse(token + "x"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected tampered token rejected, got %v", err)
	}
}

func TestCurrentUserRoles(t *testing.T) {
	student := &CurrentUser{ID: 1, Roles: []string{model.RoleStudent}}
	if student.IsStaff() || !student.HasRole(model.RoleStudent) {
		t.Fatalf("student roles wrong")
	}
	admin := &CurrentUser{ID: 2, Roles: []string{model.RoleAdmin}}
	if !admin.IsStaff() {
		t.Fatalf("admin should be staff")
	}
}

func TestHasAllowedExt(t *testing.T) {
	if !HasAllowedExt("Report.PDF", AllowedDocumentExts) {
		t.Fatalf("extension match should ignore case")
	}
	if HasAllowedExt("payload.exe", AllowedDocumentExts) || HasAllowedExt("noext", AllowedDocumentExts) {
		t.Fatalf("unexpected match")
	}
	mime, err := ValidateMimeType(strings.NewReader("<?xml version=\"1.0\"?><quiz/>"), AllowedMoodleXMLTypes)
	if err != nil {
		t.Fatalf("xml should be accepted, got %s: %v", mime, err)
	}
}
