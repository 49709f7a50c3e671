// Package fingerprint computes a deterministic content hash for a Job's
// closure, used as the cache key for the snapshot cache. Go has no runtime
// object pickler, so the hash is built from the pieces of a build that
// determine behavior: the Job's declared spec, the module versions its
// binary was built against, and the Go runtime version.
package fingerprint

import (
	"crypto/sha1" //nolint:gosec // content-addressing, not a security boundary
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"

	"github.com/sirupsen/logrus"
)

// Spec is the declared shape of a Job that participates in fingerprinting.
// HandlerSymbol should be a stable identifier for the registered function,
// e.g. obtained via runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name();
// using the symbol name rather than the function value itself means two
// instances constructed from the same handler always agree, matching the
// "normalize instance-address-derived tokens to constants" requirement.
type Spec struct {
	Name          string   `json:"name"`
	Image         string   `json:"image"`
	UpstreamNames []string `json:"upstream_names"`
	HandlerSymbol string   `json:"handler_symbol"`
}

// buildInfo is populated once from runtime/debug.ReadBuildInfo; tests can
// override it to get a deterministic fingerprint independent of the actual
// build environment.
var buildInfo = readBuildInfo()

type moduleVersions struct {
	GoVersion string            `json:"go_version"`
	Modules   map[string]string `json:"modules"`
	Resolved  bool              `json:"resolved"`
}

func readBuildInfo() moduleVersions {
	mv := moduleVersions{
		GoVersion: runtime.Version(),
		Modules:   map[string]string{},
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		logrus.Warn("fingerprint: runtime/debug.ReadBuildInfo unavailable; module versions omitted from fingerprint, weakening cache reproducibility across builds")
		return mv
	}
	mv.Resolved = true
	for _, dep := range info.Deps {
		mv.Modules[dep.Path] = dep.Version
	}
	return mv
}

// Of computes the hex-encoded SHA-1 fingerprint of a Job spec: the spec
// itself, the build's module versions, and the Go runtime version, all
// marshaled deterministically (map keys sorted) and hashed together.
func Of(spec Spec) (string, error) {
	sortedUpstreams := append([]string(nil), spec.UpstreamNames...)
	sort.Strings(sortedUpstreams)
	spec.UpstreamNames = sortedUpstreams

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal spec: %w", err)
	}

	modKeys := make([]string, 0, len(buildInfo.Modules))
	for k := range buildInfo.Modules {
		modKeys = append(modKeys, k)
	}
	sort.Strings(modKeys)
	depsJSON, err := json.Marshal(struct {
		GoVersion string   `json:"go_version"`
		Deps      []string `json:"deps"`
	}{
		GoVersion: buildInfo.GoVersion,
		Deps: func() []string {
			out := make([]string, len(modKeys))
			for i, k := range modKeys {
				out[i] = k + "@" + buildInfo.Modules[k]
			}
			return out
		}(),
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal build info: %w", err)
	}

	h := sha1.New() //nolint:gosec
	h.Write(specJSON)
	h.Write(depsJSON)
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Tag formats a fingerprint as a snapshot image tag with the given prefix,
// e.g. Tag("flowrun-sandbox", fp) -> "flowrun-sandbox:<fp>".
func Tag(prefix, fp string) string {
	return prefix + ":" + fp
}
