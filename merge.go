package capitol

import (
	"slices"

	"github.com/sumiran35/capitol-shill/date"
)

// DefaultLookback is the number of days fetched when there is no local history.
const DefaultLookback = 90

// Change records a trade whose content was replaced by a newer observation of the same Key.
type Change struct {
	Old, New Trade
}

// MergeResult describes the outcome of a Merge.
type MergeResult struct {
	Trades  []Trade  // merged snapshot, in chronological order
	Added   int      // trades with a key not in the snapshot before
	Updated []Change // trades replaced by a newer observation
}

// Merge folds fresh trades into existing ones.
//
// Trades sharing a Key collapse into a single one, the last observed wins: fresh
// over existing, and later over earlier within each slice. A replaced trade keeps
// its position; trades with a new key are appended. The result is then sorted by
// transaction date, ties keeping their merge order, so that merging the same
// batch twice yields the same snapshot.
func Merge(existing, fresh []Trade) MergeResult {
	var res MergeResult
	index := make(map[Key]int, len(existing)+len(fresh))
	merged := make([]Trade, 0, len(existing)+len(fresh))

	// existing is deduplicated too, a snapshot written by another tool may contain duplicates.
	for _, t := range existing {
		k := t.Key()
		if i, ok := index[k]; ok {
			merged[i] = t
			continue
		}
		index[k] = len(merged)
		merged = append(merged, t)
	}
	known := len(merged)

	for _, t := range fresh {
		k := t.Key()
		i, ok := index[k]
		switch {
		case !ok:
			index[k] = len(merged)
			merged = append(merged, t)
			res.Added++
		case !merged[i].Equal(t):
			if i < known {
				res.Updated = append(res.Updated, Change{Old: merged[i], New: t})
			}
			merged[i] = t
		}
	}
	slices.SortStableFunc(merged, func(a, b Trade) int {
		return a.TransactionDate.Compare(b.TransactionDate)
	})
	res.Trades = merged
	return res
}

// Dedup returns trades without duplicated keys, the last observed winning.
func Dedup(trades []Trade) []Trade {
	return Merge(nil, trades).Trades
}

// Watermark returns the most recent transaction date in trades, or the day
// DefaultLookback days before today when there is none.
func Watermark(trades []Trade, today date.Date) date.Date {
	var max date.Date
	for _, t := range trades {
		if t.TransactionDate.After(max) {
			max = t.TransactionDate
		}
	}
	if max.IsZero() {
		return today.Add(-DefaultLookback)
	}
	return max
}
