// Package buildinfo contains build-time metadata kept apart from user configuration.
package buildinfo

import "strings"

// UnknownValue is reported for metadata that was not injected at build time.
const UnknownValue = "unknown"

// Context holds the version and build date set through -ldflags.
type Context struct {
	version   string
	buildDate string
}

// NewContext trims the injected values; blanks are reported as UnknownValue.
func NewContext(version, buildDate string) *Context {
	return &Context{
		version:   strings.TrimSpace(version),
		buildDate: strings.TrimSpace(buildDate),
	}
}

// Version returns the Git version tag of the build.
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns when the binary was built.
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// String formats the metadata for `bonsai --version`.
func (c *Context) String() string {
	return c.Version() + " (built " + c.BuildDate() + ")"
}
