package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("teacher-1", RoleTeacher, "classtrack", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := Parse(pair.AccessToken, "secret", "classtrack")
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "teacher-1" || claims.Role != RoleTeacher {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	pair, err := Issue("teacher-1", RoleTeacher, "classtrack", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(pair.AccessToken, "other-key", "classtrack"); err == nil {
		t.Fatal("token accepted with the wrong key")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	pair, err := Issue("teacher-1", RoleTeacher, "other-app", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "classtrack"); err == nil {
		t.Fatal("token accepted from the wrong issuer")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "correct horse battery") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong password") {
		t.Fatal("wrong password accepted")
	}
}
