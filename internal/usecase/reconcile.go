package usecase

import (
	"strings"

	"adsight/internal/domain"
)

// ceiling for preview URLs; anything longer is treated as malformed
const maxPreviewURLLength = 2048

// descriptive field fallback chains shared by merge and backfill
var (
	titleFields    = []string{"creative_title", "creative_name", "title", "ad_name"}
	previewFields  = []string{"preview_image_url", "thumbnail_url", "media_image_src"}
	linkFields     = []string{"permalink", "permalink_url", "link"}
	campaignFields = []string{"campaign_name", "campaign"}
	adsetFields    = []string{"adset_name", "adset"}
)

// Reconcile merges rows describing the same creative/campaign/ad into one
// entity per identity key. Numeric fields accumulate by summation; each input
// row is counted exactly once. Descriptive fields resolve first-non-empty in
// first-seen order so repeated fetches cannot flip an already-resolved value.
// Rows without a usable identity are dropped. Output preserves first-seen
// key order.
func Reconcile(rows []domain.Row) []domain.MergedEntity {
	index := make(map[string]int, len(rows))
	entities := make([]domain.MergedEntity, 0, len(rows))

	for _, row := range rows {
		key := domain.EntityKeyOf(row)
		if key == "" {
			continue
		}

		i, seen := index[key]
		if !seen {
			i = len(entities)
			index[key] = i
			entities = append(entities, domain.MergedEntity{Key: key})
		}

		entity := &entities[i]
		entity.Spend += row.Float("spend", "cost")
		entity.Clicks += row.Float("clicks")
		entity.Impressions += row.Float("impressions")
		entity.Leads += row.Float("leads", "conversions")
		entity.Purchases += row.Float("purchases")
		entity.Contracts += row.Float("contracts")
		entity.Revenue += row.Float("revenue")

		fillDescriptive(entity, row)
	}

	return entities
}

// fillDescriptive resolves descriptive fields that are still empty; later
// rows never overwrite a value already in place
func fillDescriptive(entity *domain.MergedEntity, row domain.Row) {
	if entity.Title == "" {
		entity.Title = row.String(titleFields...)
	}
	if entity.PreviewURL == "" {
		entity.PreviewURL = SanitizePreviewURL(row.String(previewFields...))
	}
	if entity.Permalink == "" {
		entity.Permalink = row.String(linkFields...)
	}
	if entity.CampaignName == "" {
		entity.CampaignName = row.String(campaignFields...)
	}
	if entity.AdsetName == "" {
		entity.AdsetName = row.String(adsetFields...)
	}
}

// BackfillEntities fills missing preview/permalink/title fields from a richer
// companion dataset indexed by the same identity keys. Present fields are
// never overwritten. The entity slice is updated in place.
func BackfillEntities(entities []domain.MergedEntity, aux []domain.Row) {
	if len(entities) == 0 || len(aux) == 0 {
		return
	}

	index := make(map[string]domain.Row, len(aux))
	for _, row := range aux {
		key := domain.EntityKeyOf(row)
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = row
		}
	}

	for i := range entities {
		row, ok := index[entities[i].Key]
		if !ok {
			continue
		}
		fillDescriptive(&entities[i], row)
	}
}

// SanitizePreviewURL validates a preview URL before it can reach rendering.
// Rejected values degrade to "" (no preview): over-long strings, leaked
// template placeholders, and anything that is not a data:image URI or an
// http(s) URL.
func SanitizePreviewURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" || len(url) > maxPreviewURLLength {
		return ""
	}
	if strings.Contains(url, "{{") || strings.Contains(url, "}}") {
		return ""
	}
	switch {
	case strings.HasPrefix(url, "data:image"):
		return url
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return url
	}
	return ""
}
