package httpapi

import (
	"strings"
	"testing"
	"time"

	"scottys/backend/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestCreateAnalystAndLoginRoundTrip(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour, nil)

	analyst, err := auth.CreateAnalyst(domain.AnalystCreateRequest{Username: "Casey", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("create analyst: %v", err)
	}
	if analyst.Username != "casey" || analyst.Role != "analyst" || !analyst.Active {
		t.Fatalf("analyst = %+v", analyst)
	}

	resp, err := auth.Login(domain.LoginRequest{Username: "casey", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Role != "analyst" || resp.AccessToken == "" {
		t.Fatalf("login response = %+v", resp)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "casey" || actor.Role != "analyst" {
		t.Fatalf("actor = %+v", actor)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour, nil)

	if _, err := auth.CreateAnalyst(domain.AnalystCreateRequest{Username: "casey", Password: "s3cret-pass"}); err != nil {
		t.Fatalf("create analyst: %v", err)
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "casey", Password: "wrong"}); err == nil {
		t.Fatal("expected login failure")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "nobody", Password: "s3cret-pass"}); err == nil {
		t.Fatal("expected login failure for unknown user")
	}
}

func TestCreateAnalystValidation(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour, nil)

	cases := []domain.AnalystCreateRequest{
		{Username: "ab", Password: "s3cret-pass"},
		{Username: "has space", Password: "s3cret-pass"},
		{Username: "casey", Password: "short"},
	}
	for _, req := range cases {
		if _, err := auth.CreateAnalyst(req); err == nil {
			t.Fatalf("expected validation error for %+v", req)
		}
	}

	if _, err := auth.CreateAnalyst(domain.AnalystCreateRequest{Username: "casey", Password: "s3cret-pass"}); err != nil {
		t.Fatalf("create analyst: %v", err)
	}
	if _, err := auth.CreateAnalyst(domain.AnalystCreateRequest{Username: "casey", Password: "s3cret-pass"}); err == nil {
		t.Fatal("expected duplicate username error")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour, nil)

	if _, err := auth.ParseToken("not-a-token"); err == nil {
		t.Fatal("expected parse failure")
	}

	other := NewAuthManager(strings.Repeat("x", 32), time.Hour, nil)
	if _, err := other.CreateAnalyst(domain.AnalystCreateRequest{Username: "casey", Password: "s3cret-pass"}); err != nil {
		t.Fatalf("create analyst: %v", err)
	}
	resp, err := other.Login(domain.LoginRequest{Username: "casey", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("token signed with a different secret was accepted")
	}
}

func TestListAnalystsSorted(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour, nil)

	for _, name := range []string{"zelda", "alice", "marin"} {
		if _, err := auth.CreateAnalyst(domain.AnalystCreateRequest{Username: name, Password: "s3cret-pass"}); err != nil {
			t.Fatalf("create analyst %s: %v", name, err)
		}
	}

	analysts := auth.ListAnalysts()
	if len(analysts) != 3 {
		t.Fatalf("got %d analysts, want 3", len(analysts))
	}
	if analysts[0].Username != "alice" || analysts[2].Username != "zelda" {
		t.Fatalf("analysts not sorted: %+v", analysts)
	}
}
