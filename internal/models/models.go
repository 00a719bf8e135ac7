package models

import "strings"

// Category is one of the fixed portfolio buckets
type Category string

const (
	CategoryEnduit             Category = "enduit"
	CategoryPeintureInterieure Category = "peinture-interieure"
	CategoryEscalierDetails    Category = "escalier-details"
	CategoryAvantApres         Category = "avant-apres"
)

// categoryLimits holds the maximum image count per category
var categoryLimits = map[Category]int{
	CategoryEnduit:             20,
	CategoryPeintureInterieure: 20,
	CategoryEscalierDetails:    20,
	CategoryAvantApres:         40,
}

// Categories returns the fixed set in display order
func Categories() []Category {
	return []Category{
		CategoryEnduit,
		CategoryPeintureInterieure,
		CategoryEscalierDetails,
		CategoryAvantApres,
	}
}

// ParseCategory validates a raw category name
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.TrimSpace(raw))
	_, ok := categoryLimits[c]
	return c, ok
}

// MaxImages returns the capacity of the category, 0 for unknown ones
func (c Category) MaxImages() int {
	return categoryLimits[c]
}

// Paired reports whether filenames in the category carry before/after prefixes
func (c Category) Paired() bool {
	return c == CategoryAvantApres
}

// Prefix returns the object store folder for the category
func (c Category) Prefix() string {
	return string(c) + "/"
}

// CategoryInfo describes a category for public listings
type CategoryInfo struct {
	Name Category `json:"name"`
	Max  int      `json:"max"`
}

// Image represents a portfolio image stored in the bucket
type Image struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	PublicID string `json:"publicId"`
}

// Pair associates a "before" image with its "after" counterpart
type Pair struct {
	Key    string `json:"key"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Review is a five-star review republished from the places API
type Review struct {
	Author   string `json:"author"`
	Text     string `json:"text"`
	Rating   int    `json:"rating"`
	Time     int64  `json:"time"`
	Language string `json:"language"`
}

// ReviewSummary is the response of the reviews proxy
type ReviewSummary struct {
	Reviews       []Review `json:"reviews"`
	TotalReviews  int      `json:"total_reviews"`
	FiveStarCount int      `json:"five_star_count"`
}
