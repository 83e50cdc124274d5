package models

// EngagementWeights are the multipliers applied to interaction counts when
// computing a post's engagement score. They are business constants with no
// deeper rationale; keep them configurable rather than scattering literals.
type EngagementWeights struct {
	Like    int64
	Comment int64
	Share   int64
	Save    int64
}

// DefaultEngagementWeights are the production ranking weights.
var DefaultEngagementWeights = EngagementWeights{
	Like:    1,
	Comment: 3,
	Share:   5,
	Save:    10,
}

// Score computes the weighted engagement score for the given live counts.
func (w EngagementWeights) Score(likes, comments, shares, saves int64) int64 {
	return likes*w.Like + comments*w.Comment + shares*w.Share + saves*w.Save
}

// VoidDurationsHours are the allowed lifetimes for a void post.
var VoidDurationsHours = []int{6, 12, 24}

// ValidVoidDuration reports whether hours is an allowed void post lifetime.
func ValidVoidDuration(hours int) bool {
	for _, d := range VoidDurationsHours {
		if d == hours {
			return true
		}
	}
	return false
}
