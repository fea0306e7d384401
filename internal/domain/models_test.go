package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestScopeListAcceptsStringOrArray(t *testing.T) {
	var req ResetRequest
	if err := json.Unmarshal([]byte(`{"scope":"transactions"}`), &req); err != nil {
		t.Fatalf("string scope: %v", err)
	}
	if !reflect.DeepEqual(req.Scope, ScopeList{"transactions"}) {
		t.Fatalf("string scope: %v", req.Scope)
	}

	req = ResetRequest{}
	if err := json.Unmarshal([]byte(`{"scope":["voids","stock"]}`), &req); err != nil {
		t.Fatalf("array scope: %v", err)
	}
	if !reflect.DeepEqual(req.Scope, ScopeList{"voids", "stock"}) {
		t.Fatalf("array scope: %v", req.Scope)
	}

	req = ResetRequest{}
	if err := json.Unmarshal([]byte(`{}`), &req); err != nil {
		t.Fatalf("missing scope: %v", err)
	}
	if len(req.Scope) != 0 {
		t.Fatalf("missing scope should stay empty: %v", req.Scope)
	}

	if err := json.Unmarshal([]byte(`{"scope":42}`), &req); err == nil {
		t.Fatalf("numeric scope accepted")
	}
}

func TestPasswordHashNeverSerialized(t *testing.T) {
	raw, err := json.Marshal(User{ID: 1, Username: "kim", PasswordHash: "bcrypt-digest"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) == "" || json.Valid(raw) == false {
		t.Fatalf("marshal output: %s", raw)
	}
	var round map[string]any
	if err := json.Unmarshal(raw, &round); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, leaked := round["passwordHash"]; leaked {
		t.Fatalf("password hash leaked: %s", raw)
	}
}

func TestActorIsAdmin(t *testing.T) {
	if (Actor{Role: RoleCashier}).IsAdmin() {
		t.Fatalf("cashier is not admin")
	}
	if !(Actor{Role: RoleAdmin}).IsAdmin() || !(Actor{Role: RoleSuperAdmin}).IsAdmin() {
		t.Fatalf("admin roles must report admin")
	}
}
