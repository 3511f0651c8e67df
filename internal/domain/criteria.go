package domain

// Direction says which population a match searches.
type Direction string

const (
	BrandSeekingInfluencers Direction = "brand_seeking_influencers"
	InfluencerSeekingBrands Direction = "influencer_seeking_brands"
)

// MatchCriteria is built from a completed session at the moment the last
// slot is filled. Platform and Budget are set for the brand direction,
// Followers for the influencer direction.
type MatchCriteria struct {
	Direction Direction
	Niche     string
	Platform  string
	Budget    int64
	Followers int64
}
