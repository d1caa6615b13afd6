package profile

// Useradd strategies select which account-creation routine the
// setup-user script runs inside the image.
const (
	UseraddGeneric = "generic"
	UseraddAlpine  = "alpine"
)

// Profile holds the build hints for a base image.
type Profile struct {
	Name     string `mapstructure:"name" yaml:"name" validate:"required"`
	Presetup string `mapstructure:"presetup" yaml:"presetup,omitempty"`
	Useradd  string `mapstructure:"useradd" yaml:"useradd,omitempty" validate:"omitempty,oneof=generic alpine"`
}

// UseraddStrategy returns the useradd selector, defaulting to generic.
func (p Profile) UseraddStrategy() string {
	if p.Useradd == "" {
		return UseraddGeneric
	}
	return p.Useradd
}

// Catalog is an ordered set of base image profiles. The order is the
// order used when listing images.
type Catalog struct {
	profiles []Profile
	index    map[string]int
}

// builtins are the base images known to build. Images whose package
// repositories have gone away (debian:8/9, ubuntu:14.04, centos:*) and
// rockylinux:9 (needs --allowerasing) are intentionally absent.
var builtins = []Profile{
	{Name: "alpine:3.19", Presetup: "apk add bash", Useradd: UseraddAlpine},
	{Name: "alpine:3.20", Presetup: "apk add bash", Useradd: UseraddAlpine},
	{Name: "alpine:latest", Presetup: "apk add bash", Useradd: UseraddAlpine},
	{Name: "debian:10"},
	{Name: "debian:11"},
	{Name: "debian:12"},
	{Name: "ubuntu:16.04"},
	{Name: "ubuntu:18.04"},
	{Name: "ubuntu:20.04"},
	{Name: "ubuntu:22.04"},
	{Name: "rockylinux:8"},
	{Name: "fedora:30"},
	{Name: "fedora:38"},
}

// NewCatalog returns a catalog containing the given profiles in order.
func NewCatalog(profiles ...Profile) *Catalog {
	c := &Catalog{index: make(map[string]int, len(profiles))}
	for _, p := range profiles {
		c.Add(p)
	}
	return c
}

// DefaultCatalog returns a fresh catalog of the built-in base images.
func DefaultCatalog() *Catalog {
	return NewCatalog(builtins...)
}

// Add appends p, or replaces the existing entry with the same name in
// place.
func (c *Catalog) Add(p Profile) {
	if i, ok := c.index[p.Name]; ok {
		c.profiles[i] = p
		return
	}
	c.index[p.Name] = len(c.profiles)
	c.profiles = append(c.profiles, p)
}

// Lookup returns the profile for name. A miss yields empty hints with
// the generic useradd strategy and ok set to false.
func (c *Catalog) Lookup(name string) (Profile, bool) {
	if i, ok := c.index[name]; ok {
		return c.profiles[i], true
	}
	return Profile{Name: name, Useradd: UseraddGeneric}, false
}

// Profiles returns a copy of the catalog entries in order.
func (c *Catalog) Profiles() []Profile {
	out := make([]Profile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// Names returns the base image names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.profiles))
	for _, p := range c.profiles {
		names = append(names, p.Name)
	}
	return names
}
