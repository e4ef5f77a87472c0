// Package features derives categorical attributes from the free-text market
// description on every ledger row. The description follows a fixed-format
// mini-grammar:
//
//	<Category>/<SubEntity>(<Region>): <EventDetail>
//
// Category is mandatory; the remaining segments appear only on track-based
// categories. Parsing fails open: a description with no separator yields the
// whole string as the category and nothing else.
package features

import (
	"regexp"
	"strings"

	"betpulse/pkg/contracts/domain"
)

// Config is the immutable policy for feature extraction.
type Config struct {
	// TrackCategories are the categories that decompose into entity, region
	// and event detail.
	TrackCategories []string
	// RegionFallback is assigned to track-based rows with no parenthetical
	// region code. Configured policy, not a parse failure.
	RegionFallback string
	// UnclassifiedRegion is the sentinel for every non-track row, applied
	// even when the description happens to contain a parenthetical.
	UnclassifiedRegion string
}

// MarketFields is the tagged parse result for one market description.
type MarketFields struct {
	Category    string
	EntityRaw   string
	EntityName  string
	EventDetail string
	Region      string
	TrackBased  bool
}

var (
	regionRe = regexp.MustCompile(`\(([^)]+)\)`)
	// dateTokenRe matches date-like tokens embedded in entity names, e.g.
	// "3rd Aug", "Aug 3rd", "2024-08-03" or "03/08".
	dateTokenRe = regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\b|\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2}(?:st|nd|rd|th)?\b|\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// ParseMarket parses one market description under the given config. All
// conditional slicing lives here so the fails-open policy stays auditable
// in one place.
func ParseMarket(description string, cfg Config) MarketFields {
	description = strings.TrimSpace(description)

	sep := strings.Index(description, "/")
	if sep < 0 {
		category := description
		return MarketFields{
			Category:   category,
			TrackBased: isTrackCategory(category, cfg),
			Region:     regionFor(category, "", cfg),
		}
	}

	category := strings.TrimSpace(description[:sep])
	rest := description[sep+1:]

	fields := MarketFields{
		Category:   category,
		TrackBased: isTrackCategory(category, cfg),
	}

	if !fields.TrackBased {
		// Non-track categories keep only the category; the sentinel region
		// applies regardless of any parenthetical in the text.
		fields.Region = cfg.UnclassifiedRegion
		return fields
	}

	entityPart := rest
	if colon := strings.Index(rest, ":"); colon >= 0 {
		entityPart = rest[:colon]
		fields.EventDetail = strings.TrimSpace(rest[colon+1:])
	}
	fields.EntityRaw = strings.TrimSpace(entityPart)

	region := ""
	if m := regionRe.FindStringSubmatch(fields.EntityRaw); m != nil {
		region = strings.TrimSpace(m[1])
	}
	fields.Region = regionFor(category, region, cfg)
	fields.EntityName = entityName(fields.EntityRaw)

	return fields
}

// Enrich derives the enriched view of the ledger. Pure and deterministic:
// same ledger and config always produce the same view, and the input rows
// are never modified.
func Enrich(rows []domain.Transaction, cfg Config) []domain.EnrichedRecord {
	enriched := make([]domain.EnrichedRecord, 0, len(rows))
	for _, row := range rows {
		fields := ParseMarket(row.MarketDescription, cfg)
		enriched = append(enriched, domain.EnrichedRecord{
			Transaction: row,
			Category:    fields.Category,
			EntityRaw:   fields.EntityRaw,
			EntityName:  fields.EntityName,
			EventDetail: fields.EventDetail,
			Region:      fields.Region,
			TrackBased:  fields.TrackBased,
		})
	}
	return enriched
}

func isTrackCategory(category string, cfg Config) bool {
	for _, c := range cfg.TrackCategories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// regionFor applies the region policy: explicit code when present, the
// configured fallback for track rows without one, the sentinel otherwise.
func regionFor(category, explicit string, cfg Config) string {
	if !isTrackCategory(category, cfg) {
		return cfg.UnclassifiedRegion
	}
	if explicit != "" {
		return explicit
	}
	return cfg.RegionFallback
}

// entityName strips the parenthetical region and embedded date-like tokens
// from the raw sub-entity, collapsing leftover whitespace.
func entityName(entityRaw string) string {
	name := regionRe.ReplaceAllString(entityRaw, "")
	name = dateTokenRe.ReplaceAllString(name, "")
	name = spaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
