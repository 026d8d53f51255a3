package review

import "github.com/Pesokrava/review_platform/internal/domain"

// settlementDelta computes the aggregate adjustment for a review state
// transition. A nil oldRv means the review was just created; a nil newRv
// means it was deleted. Exactly one delta is produced per transition:
//
//	create INACTIVE            -> none
//	create ACTIVE              -> +1 review, +avg, +1 in bucket(avg)
//	INACTIVE -> ACTIVE         -> +1 review, +avg, +1 in bucket (new values)
//	ACTIVE -> INACTIVE         -> -1 review, -avg, -1 in bucket (old values)
//	ACTIVE, ratings edited     -> rating moves by newAvg-oldAvg, bucket moves if changed
//	ACTIVE -> deleted          -> -1 review, -avg, -1 in bucket (old values)
//	INACTIVE -> deleted        -> none
//
// The second return value reports whether there is anything to apply.
func settlementDelta(oldRv, newRv *domain.Review) (domain.StatsDelta, bool) {
	var delta domain.StatsDelta

	switch {
	case oldRv == nil && newRv == nil:
		return delta, false

	case oldRv == nil:
		if !newRv.IsActive() {
			return delta, false
		}
		countReview(&delta, newRv, 1)

	case newRv == nil:
		if !oldRv.IsActive() {
			return delta, false
		}
		countReview(&delta, oldRv, -1)

	case !oldRv.IsActive() && newRv.IsActive():
		// When a status flip and a rating edit arrive in the same request,
		// the new rating values are the ones that get counted.
		countReview(&delta, newRv, 1)

	case oldRv.IsActive() && !newRv.IsActive():
		countReview(&delta, oldRv, -1)

	case oldRv.IsActive() && newRv.IsActive():
		oldAvg := domain.ReviewAverage(oldRv)
		newAvg := domain.ReviewAverage(newRv)
		if oldAvg == newAvg {
			return delta, false
		}
		delta.Rating = newAvg - oldAvg
		oldBucket := domain.StarBucket(oldAvg)
		newBucket := domain.StarBucket(newAvg)
		if oldBucket != newBucket {
			delta.AddBucket(oldBucket, -1)
			delta.AddBucket(newBucket, 1)
		}

	default:
		// INACTIVE -> INACTIVE edits never touch aggregates
		return delta, false
	}

	return delta, !delta.IsZero()
}

// countReview accumulates a whole review into (sign=1) or out of (sign=-1)
// a delta
func countReview(delta *domain.StatsDelta, rv *domain.Review, sign int) {
	avg := domain.ReviewAverage(rv)
	delta.Reviews += sign
	delta.Rating += float64(sign) * avg
	delta.AddBucket(domain.StarBucket(avg), sign)
}
