package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCatalog_Order(t *testing.T) {
	names := DefaultCatalog().Names()

	assert.Equal(t, "alpine:3.19", names[0])
	assert.Equal(t, "fedora:38", names[len(names)-1])
	assert.Contains(t, names, "ubuntu:22.04")
	assert.NotContains(t, names, "centos:7")
}

func TestCatalog_Lookup(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name         string
		image        string
		wantFound    bool
		wantPresetup string
		wantUseradd  string
	}{
		{"alpine has hints", "alpine:3.20", true, "apk add bash", UseraddAlpine},
		{"debian has no hints", "debian:12", true, "", UseraddGeneric},
		{"unknown falls back", "archlinux:latest", false, "", UseraddGeneric},
		{"empty name falls back", "", false, "", UseraddGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := c.Lookup(tt.image)
			assert.Equal(t, tt.wantFound, ok)
			assert.Equal(t, tt.wantPresetup, p.Presetup)
			assert.Equal(t, tt.wantUseradd, p.UseraddStrategy())
		})
	}
}

func TestCatalog_AddReplacesInPlace(t *testing.T) {
	c := NewCatalog(Profile{Name: "a"}, Profile{Name: "b"})
	c.Add(Profile{Name: "a", Presetup: "echo hi"})
	c.Add(Profile{Name: "c"})

	assert.Equal(t, []string{"a", "b", "c"}, c.Names())
	p, ok := c.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, "echo hi", p.Presetup)
}

func TestDefaultCatalog_Independent(t *testing.T) {
	first := DefaultCatalog()
	first.Add(Profile{Name: "custom:1"})

	_, ok := DefaultCatalog().Lookup("custom:1")
	assert.False(t, ok, "catalogs must not share state")
}

func TestCatalog_ProfilesIsCopy(t *testing.T) {
	c := NewCatalog(Profile{Name: "x"})
	ps := c.Profiles()
	ps[0].Name = "changed"

	assert.Equal(t, []string{"x"}, c.Names())
}
