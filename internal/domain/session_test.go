package domain

import "testing"

func TestSession_Roles(t *testing.T) {
	var anon *Session
	if anon.Authenticated() || anon.CanModerate() || anon.IsAdmin() {
		t.Fatal("nil session must be anonymous")
	}
	if (&Session{}).Authenticated() {
		t.Fatal("empty user id must be anonymous")
	}

	member := &Session{UserID: "u", Role: RoleMember}
	mod := &Session{UserID: "m", Role: RoleModerator}
	admin := &Session{UserID: "a", Role: RoleAdmin}

	if !member.Authenticated() || member.CanModerate() || member.IsAdmin() {
		t.Fatalf("member permissions wrong: %+v", member)
	}
	if !mod.CanModerate() || mod.IsAdmin() {
		t.Fatalf("moderator permissions wrong: %+v", mod)
	}
	if !admin.CanModerate() || !admin.IsAdmin() {
		t.Fatalf("admin permissions wrong: %+v", admin)
	}
}
