// Package naming implements the filename convention shared by uploaders and readers:
// generic categories use {category}-{id}{ext}, the before/after category uses
// {avant|apres}-{id}{ext} where id is the pairing key.
package naming

import (
	"path"
	"regexp"
	"strings"

	"portfolio-backend/internal/models"

	"github.com/google/uuid"
)

// Side tags a parsed before/after filename
type Side int

const (
	Unrecognized Side = iota
	Before
	After
)

const (
	beforePrefix = "avant-"
	afterPrefix  = "apres-"
)

func (s Side) String() string {
	switch s {
	case Before:
		return "avant"
	case After:
		return "apres"
	default:
		return "unrecognized"
	}
}

// Prefix returns the filename prefix of the side, empty for Unrecognized
func (s Side) Prefix() string {
	switch s {
	case Before:
		return beforePrefix
	case After:
		return afterPrefix
	default:
		return ""
	}
}

// ParseSide accepts "avant"/"before" and "apres"/"after"
func ParseSide(raw string) Side {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "avant", "before":
		return Before
	case "apres", "after":
		return After
	default:
		return Unrecognized
	}
}

// Parsed is the result of parsing a before/after filename
type Parsed struct {
	Side Side
	Key  string
}

// Parse classifies filename as Before(key), After(key) or Unrecognized
func Parse(filename string) Parsed {
	base := strings.ToLower(path.Base(filename))
	stem := strings.TrimSuffix(base, path.Ext(base))

	var side Side
	switch {
	case strings.HasPrefix(stem, beforePrefix):
		side = Before
		stem = strings.TrimPrefix(stem, beforePrefix)
	case strings.HasPrefix(stem, afterPrefix):
		side = After
		stem = strings.TrimPrefix(stem, afterPrefix)
	default:
		return Parsed{Side: Unrecognized}
	}
	if stem == "" {
		return Parsed{Side: Unrecognized}
	}
	return Parsed{Side: side, Key: stem}
}

// Pairs derives before/after pairs from a listing. For every After image whose key
// has a Before image, one pair is emitted in listing order. Orphans on either side
// are dropped. When several Before images share a key the first one wins.
func Pairs(images []models.Image) []models.Pair {
	before := make(map[string]string)
	for _, img := range images {
		p := Parse(img.Filename)
		if p.Side != Before {
			continue
		}
		if _, seen := before[p.Key]; !seen {
			before[p.Key] = img.URL
		}
	}

	pairs := []models.Pair{}
	for _, img := range images {
		p := Parse(img.Filename)
		if p.Side != After {
			continue
		}
		beforeURL, ok := before[p.Key]
		if !ok {
			continue
		}
		pairs = append(pairs, models.Pair{Key: p.Key, Before: beforeURL, After: img.URL})
	}
	return pairs
}

// NewID returns a short unique id suitable for filenames and pairing keys
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Generic builds {category}-{id}{ext}
func Generic(category models.Category, id, ext string) string {
	return string(category) + "-" + id + normalizeExt(ext)
}

// Paired builds {avant|apres}-{id}{ext}; it returns "" for Unrecognized
func Paired(side Side, id, ext string) string {
	if side == Unrecognized {
		return ""
	}
	return side.Prefix() + id + normalizeExt(ext)
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// Sanitize lowercases a caller-supplied filename and strips any directory or
// character that is not safe in an object key
func Sanitize(filename string) string {
	name := strings.ToLower(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	name = unsafeChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if name == "" || name == "." {
		return ""
	}
	return name
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
