package config

import (
	"fmt"
	"slices"
	"sort"

	"github.com/nao1215/stacksniffer/internal/model"
)

// SiteConfig holds settings for a single host.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent with every request to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers included in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Probes are extra auxiliary paths requested in addition to the catalog's.
	Probes []string `yaml:"probes,omitempty"`

	// SkipProbes are catalog paths not to request for this site.
	SkipProbes []string `yaml:"skipProbes,omitempty"`
}

// File represents the structure of the .stacksniffer configuration file.
type File struct {
	// Sites maps host names (e.g. "example.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Signatures are extra catalog files merged into the built-in catalog.
	// Relative paths are resolved against the config file's directory.
	Signatures []string `yaml:"signatures,omitempty"`
}

// GetSiteConfig returns the configuration for host, merging the site entry
// over the defaults. Header maps are merged key by key; probe lists of the
// site are appended to the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := SiteConfig{
		Cookie:     cf.Defaults.Cookie,
		Probes:     slices.Clone(cf.Defaults.Probes),
		SkipProbes: slices.Clone(cf.Defaults.SkipProbes),
	}
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	site, ok := cf.Sites[host]
	if !ok {
		return result
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	result.Probes = append(result.Probes, site.Probes...)
	result.SkipProbes = append(result.SkipProbes, site.SkipProbes...)
	return result
}

// validateProbes rejects probe entries that would leave the target host.
func (cf *File) validateProbes() error {
	if err := checkProbes("defaults", cf.Defaults.Probes); err != nil {
		return err
	}
	hosts := make([]string, 0, len(cf.Sites))
	for host := range cf.Sites {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	for _, host := range hosts {
		if err := checkProbes("sites."+host, cf.Sites[host].Probes); err != nil {
			return err
		}
	}
	return nil
}

func checkProbes(section string, probes []string) error {
	for _, p := range probes {
		if !model.IsLocalPath(p) {
			return fmt.Errorf("%s.probes: %w, got %q", section, ErrInvalidProbePath, p)
		}
	}
	return nil
}

// ProbePaths applies the site's probe settings to the catalog paths:
// skipped paths are removed, extra paths are appended, duplicates dropped.
// Paths that are not on the target host are never returned.
func (sc SiteConfig) ProbePaths(catalogPaths []string) []string {
	paths := make([]string, 0, len(catalogPaths)+len(sc.Probes))
	for _, p := range append(slices.Clone(catalogPaths), sc.Probes...) {
		if !model.IsLocalPath(p) || slices.Contains(sc.SkipProbes, p) || slices.Contains(paths, p) {
			continue
		}
		paths = append(paths, p)
	}
	return paths
}
