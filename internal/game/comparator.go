package game

import (
	"strings"

	"musicwordle/internal/models"
)

const (
	partialThreshold = 0.8
	matchThreshold   = 0.9
	yearWindow       = 5
	trackWindow      = 3
)

// Result is the verdict of one guess against the target.
type Result struct {
	Comparison models.Comparison
	IsCorrect  bool
}

// Comparator scores a guess against a target. Compare is the only
// implementation; the type exists so the state machine can be tested with a
// stub.
type Comparator func(guess, target models.Album) Result

// Compare scores every field of guess against target. It never fails:
// unknown numeric values compare as 0.
func Compare(guess, target models.Album) Result {
	guessYear := ParseYear(guess.Year)
	targetYear := ParseYear(target.Year)

	c := models.Comparison{
		Album:  CompareTitles(guess.Name, target.Name),
		Artist: CompareArtists(guess.Artist, target.Artist),
		Year:   CompareYears(guessYear, targetYear),
		Decade: CompareDecades(guessYear, targetYear),
		Genre:  CompareGenres(guess.Genres, target.Genres),
		Tracks: CompareTracks(guess.TotalTracks, target.TotalTracks),
	}

	// The fuzzy name check is independent of the title verdict and can
	// promote a near-miss to a win.
	matched := IsAlbumMatch(guess.Name, target.Name)

	return Result{
		Comparison: c,
		IsCorrect:  c.Album.Status == models.StatusCorrect || matched,
	}
}

func CompareTitles(guess, target string) models.FieldVerdict {
	if guess == "" || target == "" {
		return models.Verdict(models.StatusIncorrect)
	}
	g, t := Normalize(guess), Normalize(target)
	if g == t {
		return models.Verdict(models.StatusCorrect)
	}
	if Similarity(g, t) >= partialThreshold {
		return models.Verdict(models.StatusPartial)
	}
	return models.Verdict(models.StatusIncorrect)
}

// CompareArtists treats containment either way as partial so collaborations
// and "feat." credits still score.
func CompareArtists(guess, target string) models.FieldVerdict {
	if guess == "" || target == "" {
		return models.Verdict(models.StatusIncorrect)
	}
	g, t := Normalize(guess), Normalize(target)
	if g == t {
		return models.Verdict(models.StatusCorrect)
	}
	if strings.Contains(t, g) || strings.Contains(g, t) {
		return models.Verdict(models.StatusPartial)
	}
	if Similarity(g, t) >= partialThreshold {
		return models.Verdict(models.StatusPartial)
	}
	return models.Verdict(models.StatusIncorrect)
}

func CompareYears(guess, target int) models.FieldVerdict {
	return compareWithin(guess, target, yearWindow)
}

func CompareDecades(guess, target int) models.FieldVerdict {
	if Decade(guess) == Decade(target) {
		return models.Verdict(models.StatusCorrect)
	}
	return models.Verdict(models.StatusIncorrect)
}

func CompareTracks(guess, target int) models.FieldVerdict {
	return compareWithin(guess, target, trackWindow)
}

// CompareGenres reports partial when some guess genre and some target genre
// fall in the same keyword category. It never reports correct, even for
// identical genre lists.
func CompareGenres(guess, target []string) models.FieldVerdict {
	if len(guess) == 0 || len(target) == 0 {
		return models.Verdict(models.StatusIncorrect)
	}
	gs, ts := normalizeGenres(guess), normalizeGenres(target)

	for _, g := range gs {
		for _, t := range ts {
			for _, cat := range genreCategories {
				if cat.matches(g) && cat.matches(t) {
					return models.Verdict(models.StatusPartial)
				}
			}
		}
	}
	return models.Verdict(models.StatusIncorrect)
}

// IsAlbumMatch is the looser whole-name check used for overall correctness.
func IsAlbumMatch(guess, target string) bool {
	g, t := Normalize(guess), Normalize(target)
	if g == t {
		return true
	}
	return Similarity(g, t) >= matchThreshold
}

func compareWithin(guess, target, window int) models.FieldVerdict {
	if guess == target {
		return models.Verdict(models.StatusCorrect)
	}
	diff := guess - target
	if diff < 0 {
		diff = -diff
	}
	if diff > window {
		return models.Verdict(models.StatusIncorrect)
	}
	dir := models.DirectionLower
	if target > guess {
		dir = models.DirectionHigher
	}
	return models.FieldVerdict{Status: models.StatusClose, Direction: dir}
}
