package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/logger"
)

// PathFilter decides which candidates are indexed and which files are
// eligible for OCR. Patterns are case-insensitive globs where "?" matches
// at most one character and "*" any run of characters.
type PathFilter struct {
	includes patternSet
	excludes patternSet
	ocr      patternSet
}

// NewPathFilter compiles the include, exclude and OCR include patterns.
// Malformed patterns are logged once and never match.
func NewPathFilter(includes, excludes, ocrIncludes []string) *PathFilter {
	f := &PathFilter{}
	var errs []error
	f.includes, errs = compilePatterns(includes, errs)
	f.excludes, errs = compilePatterns(excludes, errs)
	f.ocr, errs = compilePatterns(ocrIncludes, errs)
	for _, err := range errs {
		logger.Warn("%v", err)
	}
	return f
}

// NewPathFilterFromSettings builds the filter of a job.
func NewPathFilterFromSettings(fs domain.FsSettings) *PathFilter {
	return NewPathFilter(fs.Includes, fs.Excludes, fs.CustomOCRIncludes)
}

// IsIndexable reports whether a candidate passes the filter.
// Directories are only checked against excludes so that included files
// in nested folders are still reached.
func (f *PathFilter) IsIndexable(virtualPath, filename string, isDir bool) bool {
	if f.excludes.match(virtualPath) || f.excludes.match(filename) {
		return false
	}
	if isDir {
		return true
	}
	return f.includes.empty() || f.includes.match(filename)
}

// IsOCREligible reports whether a file may be sent to the OCR provider.
func (f *PathFilter) IsOCREligible(filename string) bool {
	return f.ocr.empty() || f.ocr.match(filename)
}

// Matches reports whether name is included by the patterns.
// An empty include list includes everything; an exclude match always wins.
func Matches(name string, includes, excludes []string) bool {
	return NewPathFilter(includes, excludes, nil).IsIndexable(name, name, false)
}

// patternSet keeps the number of configured patterns apart from the
// compiled ones so that a list of only malformed patterns still filters.
type patternSet struct {
	size  int
	rules []*regexp.Regexp
}

func (p patternSet) empty() bool {
	return p.size == 0
}

func (p patternSet) match(s string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, re := range p.rules {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func compilePatterns(patterns []string, errs []error) (patternSet, []error) {
	set := patternSet{size: len(patterns)}
	for _, pattern := range patterns {
		re, err := compileGlob(pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %w", domain.ErrFilter, pattern, err))
			continue
		}
		set.rules = append(set.rules, re)
	}
	return set, errs
}

func compileGlob(pattern string) (*regexp.Regexp, error) {
	expr := strings.ToLower(pattern)
	expr = strings.ReplaceAll(expr, "?", ".?")
	expr = strings.ReplaceAll(expr, "*", ".*?")
	return regexp.Compile("^(?:" + expr + ")$")
}

// ContentFilter gates files on their extracted text using regular expressions.
type ContentFilter struct {
	rules []*regexp.Regexp
	size  int
}

// NewContentFilter compiles the content filters of a job.
// Malformed expressions are logged once and never match.
func NewContentFilter(patterns []string) *ContentFilter {
	f := &ContentFilter{size: len(patterns)}
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			logger.Warn("%v", fmt.Errorf("%w: %q: %w", domain.ErrFilter, pattern, err))
			continue
		}
		f.rules = append(f.rules, re)
	}
	return f
}

// Accepts reports whether text matches at least one filter.
// A filter built from no patterns accepts everything.
func (f *ContentFilter) Accepts(text string) bool {
	if f == nil || f.size == 0 {
		return true
	}
	for _, re := range f.rules {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
