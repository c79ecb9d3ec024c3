package password

import (
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Argon2 {
	t.Helper()
	// Low cost parameters keep the tests fast.
	h, err := NewArgon2(Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return h
}

func TestHashVerifyRoundtrip(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected PHC prefix: %s", encoded)
	}

	ok, err := h.Verify("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Fatal("correct secret does not verify")
	}

	ok, err = h.Verify("wrong", encoded)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Fatal("wrong secret verifies")
	}
}

func TestHashRejectsEmptySecret(t *testing.T) {
	h := testHasher(t)

	if _, err := h.Hash(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

// Any non-empty secret is hashable; length policy is not the hasher's job.
func TestHashAcceptsShortSecret(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("p1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if ok, _ := h.Verify("p1", encoded); !ok {
		t.Fatal("short secret does not verify")
	}
}

func TestHashSaltsEachCall(t *testing.T) {
	h := testHasher(t)

	a, err := h.Hash("secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := h.Hash("secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same secret are identical")
	}
}

func TestVerifyRejectsMalformedPHC(t *testing.T) {
	h := testHasher(t)

	valid, err := h.Hash("secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	parts := strings.Split(valid, "$")
	parts[4] = "!not-base64!"
	badSalt := strings.Join(parts, "$")

	cases := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"not phc", "plain-text"},
		{"wrong algorithm", strings.Replace(valid, "argon2id", "bcrypt", 1)},
		{"bad version", strings.Replace(valid, "v=19", "v=99", 1)},
		{"missing sections", "$argon2id$v=19$m=8192,t=1,p=1"},
		{"bad salt encoding", badSalt},
		{"memory below minimum", strings.Replace(valid, "m=8192", "m=1", 1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.Verify("secret", tc.encoded); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestNewArgon2EnforcesMinimums(t *testing.T) {
	base := Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"memory", func(c *Config) { c.Memory = 1024 }},
		{"time", func(c *Config) { c.Time = 0 }},
		{"parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"salt length", func(c *Config) { c.SaltLength = 8 }},
		{"key length", func(c *Config) { c.KeyLength = 8 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if _, err := NewArgon2(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
