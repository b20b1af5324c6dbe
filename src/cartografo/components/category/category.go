// Package category assigns a coarse content category from channel text.
package category

import (
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/evidence"
)

const Default = "General"

type entry struct {
	name     string
	keywords []string
}

// Ordered so ties resolve deterministically.
var table = []entry{
	{"Gaming", []string{"gaming", "games", "juegos", "videojuegos", "twitch", "gamer"}},
	{"Charlas", []string{"charlas", "entrevistas", "podcast", "conversaciones", "bunker", "mesa redonda"}},
	{"Música", []string{"música", "music", "covers", "cantante", "banda", "musical"}},
	{"Cocina", []string{"cocina", "recetas", "cooking", "chef", "gastronomía", "comida"}},
	{"Educativo", []string{"educativo", "tutorial", "enseñanza", "clases", "aprende", "educación"}},
	{"Entretenimiento", []string{"entretenimiento", "humor", "comedia", "sketches", "variedades"}},
	{"Deportes", []string{"deportes", "fútbol", "sports", "deporte"}},
	{"Tecnología", []string{"tecnología", "tech", "programación", "código", "desarrollo"}},
	{"Arte", []string{"arte", "dibujo", "pintura", "diseño", "manualidades"}},
	{"Viajes", []string{"viajes", "turismo", "travel", "aventura"}},
}

type keywordSet struct {
	name    string
	matcher *evidence.TermMatcher
}

var compiled = func() []keywordSet {
	out := make([]keywordSet, 0, len(table))
	for _, e := range table {
		out = append(out, keywordSet{name: e.name, matcher: evidence.NewTermMatcher(e.keywords)})
	}
	return out
}()

// Detect returns the category whose keywords match the text most often, or
// Default when nothing matches.
func Detect(text string) string {
	norm := evidence.Normalize(text)

	best, bestScore := Default, 0
	for _, ks := range compiled {
		if score := len(ks.matcher.Match(norm)); score > bestScore {
			best, bestScore = ks.name, score
		}
	}
	return best
}
