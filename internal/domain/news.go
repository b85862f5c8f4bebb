package domain

type NewsArticle struct {
	Title       string  `json:"title"`
	Source      string  `json:"source"`
	URL         string  `json:"url"`
	Snippet     string  `json:"snippet"`
	PublishedAt *string `json:"publishedAt,omitempty"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
}

type NewsResult struct {
	Query        string        `json:"query"`
	City         string        `json:"city"`
	Articles     []NewsArticle `json:"articles"`
	TotalResults int           `json:"totalResults"`
}
