package models

// SEO are the explicit search/social overrides editors may set on a document.
// Empty fields fall back to values computed from the document itself.
type SEO struct {
	MetaTitle          string   `bson:"meta_title,omitempty" json:"meta_title,omitempty"`
	MetaDescription    string   `bson:"meta_description,omitempty" json:"meta_description,omitempty"`
	Keywords           []string `bson:"keywords,omitempty" json:"keywords,omitempty"`
	CanonicalURL       string   `bson:"canonical_url,omitempty" json:"canonical_url,omitempty"`
	OGTitle            string   `bson:"og_title,omitempty" json:"og_title,omitempty"`
	OGDescription      string   `bson:"og_description,omitempty" json:"og_description,omitempty"`
	OGImage            string   `bson:"og_image,omitempty" json:"og_image,omitempty"`
	TwitterCard        string   `bson:"twitter_card,omitempty" json:"twitter_card,omitempty"`
	TwitterTitle       string   `bson:"twitter_title,omitempty" json:"twitter_title,omitempty"`
	TwitterDescription string   `bson:"twitter_description,omitempty" json:"twitter_description,omitempty"`
	TwitterImage       string   `bson:"twitter_image,omitempty" json:"twitter_image,omitempty"`
	NoIndex            bool     `bson:"no_index,omitempty" json:"no_index,omitempty"`
}
