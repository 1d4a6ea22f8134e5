package password

import "testing"

func TestHashAndCompare(t *testing.T) {
	hash, err := Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := Compare(hash, "correct horse battery staple"); err != nil {
		t.Fatalf("compare rejected the right password: %v", err)
	}
	if err := Compare(hash, "wrong password"); err == nil {
		t.Fatal("compare accepted the wrong password")
	}
}
