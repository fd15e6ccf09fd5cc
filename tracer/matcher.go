// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"regexp"
	"strings"
)

// spanMatcher implements the glob-style matching of C10 / spec.md §3:
// service/name/resource patterns plus an optional tag pattern map. Every
// pattern defaults to "*" (match anything) when left empty. Patterns are
// compiled once, at rule-construction time, mirroring the precompiled-
// regexp idiom ddtrace/tracer/textmap.go uses for its sanitizing regexes.
type spanMatcher struct {
	service  *regexp.Regexp
	name     *regexp.Regexp
	resource *regexp.Regexp
	tags     map[string]*regexp.Regexp
}

func newSpanMatcher(service, name, resource string, tags map[string]string) (*spanMatcher, error) {
	m := &spanMatcher{}
	var err error
	if m.service, err = compileGlob(service); err != nil {
		return nil, err
	}
	if m.name, err = compileGlob(name); err != nil {
		return nil, err
	}
	if m.resource, err = compileGlob(resource); err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		m.tags = make(map[string]*regexp.Regexp, len(tags))
		for k, pattern := range tags {
			re, err := compileGlob(pattern)
			if err != nil {
				return nil, err
			}
			m.tags[k] = re
		}
	}
	return m, nil
}

// compileGlob translates a glob with '*' (any run of characters) and '?'
// (any single character) into an anchored regexp. An empty pattern is
// treated as "*", per spec.md §3.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = "*"
	}
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return regexp.Compile(b.String())
}

// match reports whether every configured pattern matches the given span
// data, per spec.md §3 ("match if every pattern matches").
func (m *spanMatcher) match(d *spanData) bool {
	if !m.service.MatchString(d.service) {
		return false
	}
	if !m.name.MatchString(d.name) {
		return false
	}
	if !m.resource.MatchString(d.resource) {
		return false
	}
	for k, re := range m.tags {
		v, ok := d.meta[k]
		if !ok {
			return false
		}
		if !re.MatchString(v) {
			return false
		}
	}
	return true
}
