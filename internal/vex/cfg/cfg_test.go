// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	doc := `
[registries.hosted]
url = "https://index.example"
token = "secret-token"
`
	c, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r, ok := c.Registries["hosted"]
	if !ok {
		t.Fatal("expected a \"hosted\" registry entry")
	}
	if r.URL != "https://index.example" || r.Token != "secret-token" {
		t.Fatalf("got %+v", r)
	}
}

func TestParseRejectsMalformedTOML(t *testing.T) {
	if _, err := Parse(strings.NewReader("[registries.hosted\n")); err == nil {
		t.Fatal("expected an error for malformed TOML")
	}
}

func TestToken(t *testing.T) {
	c := &Config{Registries: map[string]Registry{
		"hosted": {URL: "https://index.example", Token: "secret-token"},
		"empty":  {URL: "https://other.example"},
	}}

	if tok, ok := c.Token("hosted"); !ok || tok != "secret-token" {
		t.Fatalf("Token(hosted) = %q, %v, want secret-token, true", tok, ok)
	}
	if _, ok := c.Token("empty"); ok {
		t.Fatal("Token should report false for a registry with no token configured")
	}
	if _, ok := c.Token("unknown"); ok {
		t.Fatal("Token should report false for an unknown registry")
	}
}

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nonexistent", "config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Registries) != 0 {
		t.Fatalf("expected an empty Config, got %+v", c)
	}
}

func TestDefaultPath(t *testing.T) {
	got := DefaultPath("/home/user")
	want := filepath.Join("/home/user", ".vex", "config.toml")
	if got != want {
		t.Fatalf("DefaultPath = %q, want %q", got, want)
	}
}
