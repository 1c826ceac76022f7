package identity

import "testing"

func TestFingerprintStableAcrossRenderings(t *testing.T) {
	a := Fingerprint("gruno", "Hoendiep 61A, 9718TC Groningen", "Groningen Centrum")
	b := Fingerprint("gruno", "hoendiep 61a 9718 TC groningen", "Groningen Centrum")
	if a != b {
		t.Fatalf("renderings of the same address diverged: %s vs %s", a, b)
	}
}

func TestFingerprintDistinguishesAgencies(t *testing.T) {
	a := Fingerprint("gruno", "Hoendiep 61A", "Groningen")
	b := Fingerprint("maxx", "Hoendiep 61A", "Groningen")
	if a == b {
		t.Fatal("different agencies collided")
	}
}

func TestFingerprintDistinguishesAddresses(t *testing.T) {
	a := Fingerprint("gruno", "Hoendiep 61A", "Groningen")
	b := Fingerprint("gruno", "Hoendiep 63", "Groningen")
	if a == b {
		t.Fatal("different addresses collided")
	}
}

func TestNormalizeAddress(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Oosterstraat 24", "oosterstr 24"},
		{"OOSTERSTRAAT 24-a!", "oosterstr 24 a"},
		{"Hoendiep 61A, 9718TC Groningen", "hoendp 61a groningen"},
	}
	for _, tc := range cases {
		if got := NormalizeAddress(tc.in); got != tc.want {
			t.Fatalf("NormalizeAddress(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPostalDistrict(t *testing.T) {
	if got := PostalDistrict("Hoendiep 61A, 9718TC Groningen"); got != "9718" {
		t.Fatalf("PostalDistrict = %q", got)
	}
	if got := PostalDistrict("Hoendiep 61A Groningen"); got != "" {
		t.Fatalf("expected empty district, got %q", got)
	}
}
