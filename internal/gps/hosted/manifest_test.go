// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hosted

import (
	"encoding/json"
	"testing"

	"github.com/tapted/vex/internal/gps"
)

func TestParseHostedManifest(t *testing.T) {
	reg := gps.NewSourceRegistry("hosted")
	reg.Register(&Source{DefaultBaseURL: "https://index.example"})

	raw := json.RawMessage(`{
		"version": "1.2.3",
		"sdk": ">=2.0.0",
		"dependencies": {"bar": "^1.0.0"}
	}`)

	m, err := parseHostedManifest("foo", raw, reg)
	if err != nil {
		t.Fatalf("parseHostedManifest: %v", err)
	}
	if !m.HasVersion || m.Version.String() != "1.2.3" {
		t.Fatalf("version = %+v, want 1.2.3", m.Version)
	}
	if !m.HasSDK {
		t.Fatal("expected HasSDK true")
	}
	if len(m.Dependencies) != 1 || m.Dependencies[0].Ref.Name != "bar" {
		t.Fatalf("dependencies = %+v, want one dependency named bar", m.Dependencies)
	}
}

func TestParseHostedManifestBadVersion(t *testing.T) {
	reg := gps.NewSourceRegistry("hosted")
	raw := json.RawMessage(`{"version": "not-a-version"}`)
	if _, err := parseHostedManifest("foo", raw, reg); err == nil {
		t.Fatal("expected an error for a malformed version")
	}
}

func TestParseHostedManifestBadSDKConstraint(t *testing.T) {
	reg := gps.NewSourceRegistry("hosted")
	raw := json.RawMessage(`{"sdk": "not a constraint!!"}`)
	if _, err := parseHostedManifest("foo", raw, reg); err == nil {
		t.Fatal("expected an error for a malformed sdk constraint")
	}
}

func TestParseHostedManifestBadJSON(t *testing.T) {
	reg := gps.NewSourceRegistry("hosted")
	if _, err := parseHostedManifest("foo", json.RawMessage(`{`), reg); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}
