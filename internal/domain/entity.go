package domain

// MergedEntity is one creative/campaign/ad after reconciling every row that
// shares its identity key. Numeric fields are sums across the source rows;
// descriptive fields keep the first non-empty value seen.
type MergedEntity struct {
	Key          string  `json:"key"`
	Title        string  `json:"title,omitempty"`
	PreviewURL   string  `json:"preview_url,omitempty"`
	Permalink    string  `json:"permalink,omitempty"`
	CampaignName string  `json:"campaign_name,omitempty"`
	AdsetName    string  `json:"adset_name,omitempty"`
	Spend        float64 `json:"spend"`
	Clicks       float64 `json:"clicks"`
	Impressions  float64 `json:"impressions"`
	Leads        float64 `json:"leads"`
	Purchases    float64 `json:"purchases"`
	Contracts    float64 `json:"contracts"`
	Revenue      float64 `json:"revenue"`
}

// EntityKeyOf derives the composite identity key of a row by trying each
// candidate field in order; the first non-empty value wins. Rows with no
// usable identity return "".
func EntityKeyOf(row Row) string {
	return row.String(
		"creative_key",
		"creative_id",
		"ad_id",
		"ad_name",
		"creative_title",
		"creative_name",
	)
}
