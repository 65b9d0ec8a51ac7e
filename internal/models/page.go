package models

// PostPage is one window of a post listing.
type PostPage struct {
	Count   int64  `json:"count"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
	Results []Post `json:"results"`
}
