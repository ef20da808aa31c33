package game

import "strings"

type genreCategory struct {
	name     string
	keywords []string
}

// Keywords are matched as substrings of normalized genre tokens, so entries
// carrying punctuation ("hip-hop", "r&b") can only match through their
// siblings.
var genreCategories = []genreCategory{
	{name: "rock", keywords: []string{"rock", "metal", "punk", "grunge", "alternative"}},
	{name: "pop", keywords: []string{"pop", "dance", "electropop", "synthpop"}},
	{name: "electronic", keywords: []string{"electronic", "techno", "house", "edm", "ambient"}},
	{name: "hip-hop", keywords: []string{"hip-hop", "rap", "trap", "r&b"}},
	{name: "jazz", keywords: []string{"jazz", "blues", "soul", "funk"}},
	{name: "classical", keywords: []string{"classical", "orchestral", "symphony"}},
	{name: "country", keywords: []string{"country", "folk", "bluegrass", "americana"}},
	{name: "indie", keywords: []string{"indie", "alternative", "underground"}},
}

func (c genreCategory) matches(token string) bool {
	for _, k := range c.keywords {
		if strings.Contains(token, k) {
			return true
		}
	}
	return false
}

// GenreCategories lists the category names in matching order.
func GenreCategories() []string {
	names := make([]string, len(genreCategories))
	for i, c := range genreCategories {
		names[i] = c.name
	}
	return names
}

func normalizeGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		if g == "" {
			continue
		}
		out = append(out, Normalize(g))
	}
	return out
}
