package domain

import "time"

// Season is a standard meteorological season label.
type Season string

const (
	DJF Season = "DJF"
	MAM Season = "MAM"
	JJA Season = "JJA"
	SON Season = "SON"
)

// seasonOrder gives the within-year sort position of each season. DJF sorts
// first because its season-year is anchored on January.
var seasonOrder = map[Season]int{DJF: 0, MAM: 1, JJA: 2, SON: 3}

// SeasonOf maps a calendar month to its meteorological season.
func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return DJF
	case time.March, time.April, time.May:
		return MAM
	case time.June, time.July, time.August:
		return JJA
	default:
		return SON
	}
}

// SeasonYearOf returns the season-year and season for a launch time.
// December counts toward the following year's DJF, so the season-year is
// always the year of the season's January.
func SeasonYearOf(t time.Time) (int, Season) {
	season := SeasonOf(t.Month())
	year := t.Year()
	if t.Month() == time.December {
		year++
	}
	return year, season
}

// CompareSeasons orders (year, season) pairs chronologically.
func CompareSeasons(aYear int, a Season, bYear int, b Season) int {
	switch {
	case aYear != bYear:
		if aYear < bYear {
			return -1
		}
		return 1
	case seasonOrder[a] != seasonOrder[b]:
		if seasonOrder[a] < seasonOrder[b] {
			return -1
		}
		return 1
	default:
		return 0
	}
}
