package auth

import (
	"errors"
	"strings"
	"testing"
)

// newTestPasswordService uses bcrypt's minimum cost so each hash takes
// milliseconds.
func newTestPasswordService() *PasswordService {
	return newPasswordServiceWithCost(4)
}

func TestPasswordService_HashLengthLimit(t *testing.T) {
	ps := newTestPasswordService()

	tests := []struct {
		name    string
		plain   string
		wantErr bool
	}{
		{"minimum length", strings.Repeat("x", MinPasswordLength), false},
		{"at the byte limit", strings.Repeat("x", MaxPasswordBytes), false},
		{"one byte over", strings.Repeat("x", MaxPasswordBytes+1), true},
		// 24 three-byte runes are 72 bytes; one more is over.
		{"multibyte at limit", strings.Repeat("密", 24), false},
		{"multibyte over", strings.Repeat("密", 25), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := ps.Hash(tc.plain)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Hash(%d bytes) error = nil, want an error", len(tc.plain))
				}
				return
			}
			if err != nil {
				t.Fatalf("Hash(%d bytes) error = %v", len(tc.plain), err)
			}
			if !strings.HasPrefix(hash, "$2") {
				t.Errorf("Hash() = %q, want a bcrypt hash", hash)
			}
		})
	}
}

func TestPasswordService_HashIsSalted(t *testing.T) {
	ps := newTestPasswordService()

	a, err := ps.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	b, err := ps.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password are identical")
	}
	if err := ps.Verify(a, "secret1"); err != nil {
		t.Errorf("Verify(first hash) error = %v", err)
	}
	if err := ps.Verify(b, "secret1"); err != nil {
		t.Errorf("Verify(second hash) error = %v", err)
	}
}

func TestPasswordService_Verify(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("Tr0ub4dor&3")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		attempt  string
		wantErr  bool
		mismatch bool // error must be ErrInvalidPassword
	}{
		{"exact match", hash, "Tr0ub4dor&3", false, false},
		{"case differs", hash, "tr0ub4dor&3", true, true},
		{"trailing space", hash, "Tr0ub4dor&3 ", true, true},
		{"empty attempt", hash, "", true, true},
		{"corrupt hash", "$2a$04$short", "Tr0ub4dor&3", true, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ps.Verify(tc.hash, tc.attempt)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("Verify() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Verify() error = nil, want an error")
			}
			if got := errors.Is(err, ErrInvalidPassword); got != tc.mismatch {
				t.Errorf("errors.Is(err, ErrInvalidPassword) = %v, want %v (err = %v)", got, tc.mismatch, err)
			}
		})
	}
}

func TestPasswordService_VerifyAcrossCosts(t *testing.T) {
	// A hash records its own cost, so raising the cost later still verifies
	// old hashes.
	old := newPasswordServiceWithCost(4)
	hash, err := old.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	current := NewPasswordServiceForTest(5)
	if err := current.Verify(hash, "secret1"); err != nil {
		t.Errorf("Verify() with a different cost error = %v", err)
	}
}

func TestPasswordService_DummyVerify(t *testing.T) {
	ps := newTestPasswordService()

	ps.DummyVerify("first")
	if len(ps.dummyHash) == 0 {
		t.Fatal("DummyVerify() did not build its hash")
	}
	built := string(ps.dummyHash)

	ps.DummyVerify("second")
	if string(ps.dummyHash) != built {
		t.Error("DummyVerify() rebuilt its hash on the second call")
	}
}
