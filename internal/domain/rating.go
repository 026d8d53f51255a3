package domain

import "math"

// ReviewAverage returns the arithmetic mean of the review's sub-scores that
// are present and strictly greater than 0. An absent or zero sub-score (the
// optional issue-handling rating in particular) is excluded from the
// denominator rather than counted as a zero score. Returns 0 when no
// sub-score qualifies.
func ReviewAverage(r *Review) float64 {
	scores := [...]float64{
		r.StoreRating,
		r.SellerRating,
		r.QualityRating,
		r.PriceRating,
		r.issueHandlingOrZero(),
	}

	var sum float64
	var n int
	for _, s := range scores {
		if s > 0 {
			sum += s
			n++
		}
	}

	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// StarBucket maps a review average onto one of the five distribution slots
// using round-half-up (2.5 buckets to 3). Returns 0 for a zero average; 0 is
// a sentinel meaning "no bucket" and must never be written to a slot.
func StarBucket(avg float64) int {
	if avg <= 0 {
		return 0
	}

	bucket := int(math.Floor(avg + 0.5))
	if bucket > 5 {
		bucket = 5
	}
	return bucket
}

// RoundRating rounds an average to one decimal place, half away from zero.
// This is the display convention for averageRating fields.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}
