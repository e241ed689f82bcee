package eligibility

import (
	"sort"

	"github.com/shopspring/decimal"

	"superteam-earn/internal/models"
)

var rankNames = [50]string{
	"first", "second", "third", "fourth", "fifth",
	"sixth", "seventh", "eighth", "ninth", "tenth",
	"eleventh", "twelfth", "thirteenth", "fourteenth", "fifteenth",
	"sixteenth", "seventeenth", "eighteenth", "nineteenth", "twentieth",
	"twenty-first", "twenty-second", "twenty-third", "twenty-fourth", "twenty-fifth",
	"twenty-sixth", "twenty-seventh", "twenty-eighth", "twenty-ninth", "thirtieth",
	"thirty-first", "thirty-second", "thirty-third", "thirty-fourth", "thirty-fifth",
	"thirty-sixth", "thirty-seventh", "thirty-eighth", "thirty-ninth", "fortieth",
	"forty-first", "forty-second", "forty-third", "forty-fourth", "forty-fifth",
	"forty-sixth", "forty-seventh", "forty-eighth", "forty-ninth", "fiftieth",
}

var rankIndex = func() map[string]int {
	m := make(map[string]int, len(rankNames))
	for i, name := range rankNames {
		m[name] = i
	}
	return m
}()

// RankOf returns the zero based rank of a position label and whether it is known.
func RankOf(label string) (int, bool) {
	i, ok := rankIndex[label]
	return i, ok
}

// RankName returns the label for a one based position ("first" for 1).
func RankName(position int) (string, bool) {
	if position < 1 || position > len(rankNames) {
		return "", false
	}
	return rankNames[position-1], true
}

// SortRank orders reward position labels by rank. Unknown labels keep their
// input order after every known label. The input slice is not modified.
func SortRank(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rankIndex[out[i]]
		rj, jok := rankIndex[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		default:
			return false
		}
	})
	return out
}

// CleanRewards drops positions with a non-positive amount and returns the
// remaining positions in rank order.
func CleanRewards(rewards models.Rewards) (models.Rewards, []string) {
	cleaned := make(models.Rewards, len(rewards))
	labels := make([]string, 0, len(rewards))
	for label, amount := range rewards {
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		cleaned[label] = amount
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return cleaned, SortRank(labels)
}
