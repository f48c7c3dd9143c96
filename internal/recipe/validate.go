package recipe

import (
	"fmt"
	"regexp"
)

var (
	// Semantic version, with optional pre-release and build metadata.
	semverRe = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

	// Lowercase package names as channels publish them.
	nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

	versionSpecRe = regexp.MustCompile(`^[0-9][0-9A-Za-z.*_-]*$`)
)

// Validate lints a parsed recipe. Whether the requirements actually
// resolve against the channels is the builder's concern, not checked
// here; this is purely a well-formedness pass.
func (r *Recipe) Validate() error {
	if r.Package.Name == "" {
		return fmt.Errorf("recipe has no package name")
	}
	if !nameRe.MatchString(r.Package.Name) {
		return fmt.Errorf("package name %q is not a valid package name", r.Package.Name)
	}
	if r.Package.Version == "" {
		return fmt.Errorf("recipe %q has no version", r.Package.Name)
	}
	if !semverRe.MatchString(r.Package.Version) {
		return fmt.Errorf("recipe %q version %q is not semver", r.Package.Name, r.Package.Version)
	}
	if r.Source.Path == "" {
		return fmt.Errorf("recipe %q has no source path", r.Package.Name)
	}

	sections := []struct {
		name  string
		lines []string
	}{
		{"host", r.Requirements.Host},
		{"build", r.Requirements.Build},
		{"run", r.Requirements.Run},
	}
	for _, sec := range sections {
		for _, line := range sec.lines {
			spec, err := ParseSpec(line)
			if err != nil {
				return fmt.Errorf("recipe %q: %s requirement: %w", r.Package.Name, sec.name, err)
			}
			if !nameRe.MatchString(spec.Name) {
				return fmt.Errorf("recipe %q: %s requirement %q has an invalid name", r.Package.Name, sec.name, line)
			}
			if spec.Operator != "" && !versionSpecRe.MatchString(spec.Version) {
				return fmt.Errorf("recipe %q: %s requirement %q has an invalid version", r.Package.Name, sec.name, line)
			}
		}
	}

	if len(r.Requirements.Run) > 0 && len(r.Channels) == 0 {
		return fmt.Errorf("recipe %q has run requirements but declares no channels", r.Package.Name)
	}
	for _, ch := range r.Channels {
		if ch == "" {
			return fmt.Errorf("recipe %q declares an empty channel", r.Package.Name)
		}
	}
	return nil
}
