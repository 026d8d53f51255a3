package domain

// RatingStats holds the denormalized review statistics embedded in Brand and
// Product records. TotalRating is the running sum of each counted review's
// computed average (not a sum of raw star values). AverageRating and
// RatingDistribution are derived; repositories call Finalize after scanning.
type RatingStats struct {
	TotalReviews       int         `json:"total_reviews" db:"total_reviews"`
	TotalRating        float64     `json:"total_rating" db:"total_rating"`
	AverageRating      float64     `json:"average_rating" db:"-"`
	RatingDistribution map[int]int `json:"rating_distribution" db:"-"`

	Dist1 int `json:"-" db:"dist_1"`
	Dist2 int `json:"-" db:"dist_2"`
	Dist3 int `json:"-" db:"dist_3"`
	Dist4 int `json:"-" db:"dist_4"`
	Dist5 int `json:"-" db:"dist_5"`
}

// Finalize populates the derived fields from the stored columns
func (s *RatingStats) Finalize() {
	if s.TotalReviews > 0 {
		s.AverageRating = RoundRating(s.TotalRating / float64(s.TotalReviews))
	} else {
		s.AverageRating = 0
	}
	s.RatingDistribution = s.Distribution()
}

// Distribution returns the star-bucket histogram as a 1..5 keyed map
func (s *RatingStats) Distribution() map[int]int {
	return map[int]int{
		1: s.Dist1,
		2: s.Dist2,
		3: s.Dist3,
		4: s.Dist4,
		5: s.Dist5,
	}
}

// AddBucket increments a distribution slot. Bucket 0 (the "no bucket"
// sentinel) and out-of-range values are ignored.
func (s *RatingStats) AddBucket(bucket, n int) {
	switch bucket {
	case 1:
		s.Dist1 += n
	case 2:
		s.Dist2 += n
	case 3:
		s.Dist3 += n
	case 4:
		s.Dist4 += n
	case 5:
		s.Dist5 += n
	}
}

// StatsDelta is one signed adjustment to an owner's RatingStats. All fields
// of a delta are applied together in a single atomic store operation;
// partial application would break the distribution-sum invariant.
type StatsDelta struct {
	Reviews int
	Rating  float64
	Buckets [5]int
}

// AddBucket accumulates a signed increment for a distribution slot. The 0
// sentinel bucket is ignored.
func (d *StatsDelta) AddBucket(bucket, n int) {
	if bucket >= 1 && bucket <= 5 {
		d.Buckets[bucket-1] += n
	}
}

// Add merges another delta into this one
func (d *StatsDelta) Add(other StatsDelta) {
	d.Reviews += other.Reviews
	d.Rating += other.Rating
	for i := range d.Buckets {
		d.Buckets[i] += other.Buckets[i]
	}
}

// IsZero reports whether applying the delta would change nothing
func (d StatsDelta) IsZero() bool {
	if d.Reviews != 0 || d.Rating != 0 {
		return false
	}
	for _, b := range d.Buckets {
		if b != 0 {
			return false
		}
	}
	return true
}
