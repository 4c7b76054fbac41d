package validate

import "strings"

// Score computes the 0-100 template match score from the four
// factors. commandIdentifier is the job's capture kind or command name,
// used only to detect the "version" special case for record-count scoring.
func Score(commandIdentifier string, result ParseResult) int {
	r := len(result.Records)
	f := len(result.Fields)
	if r == 0 || f == 0 {
		return 0
	}

	isVersion := strings.Contains(strings.ToLower(commandIdentifier), "version")

	total := recordCountScore(isVersion, r) +
		fieldRichnessScore(f) +
		populationScore(result.populated(), r, f) +
		consistencyScore(result.dominantCount, r)

	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	return int(total + 0.5)
}

// recordCountScore implements the 0-30 record-count factor.
func recordCountScore(isVersion bool, r int) float64 {
	if isVersion {
		if r == 1 {
			return 30
		}
		return 0
	}
	switch {
	case r <= 0:
		return 0
	case r <= 2:
		return lerp(r, 1, 2, 10, 20)
	case r <= 9:
		return lerp(r, 3, 9, 20, 30)
	default:
		return 30
	}
}

// fieldRichnessScore implements the 0-30 field-richness factor.
func fieldRichnessScore(f int) float64 {
	switch {
	case f <= 0:
		return 0
	case f <= 2:
		return lerp(f, 1, 2, 5, 10)
	case f <= 5:
		return lerp(f, 3, 5, 10, 20)
	case f <= 9:
		return lerp(f, 6, 9, 20, 30)
	default:
		return 30
	}
}

// populationScore implements the 0-25 population-rate factor: (P/(R*F))*25.
func populationScore(populated, r, f int) float64 {
	if r == 0 || f == 0 {
		return 0
	}
	return (float64(populated) / float64(r*f)) * 25
}

// consistencyScore implements the 0-15 consistency factor: (C/R)*15.
func consistencyScore(dominantCount, r int) float64 {
	if r == 0 {
		return 0
	}
	return (float64(dominantCount) / float64(r)) * 15
}

// lerp linearly interpolates x in [x0, x1] onto [y0, y1]. x0 == x1 returns
// y0.
func lerp(x, x0, x1 int, y0, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	t := float64(x-x0) / float64(x1-x0)
	return y0 + t*(y1-y0)
}
