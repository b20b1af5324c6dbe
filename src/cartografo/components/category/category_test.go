package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"gaming", "Canal de gaming y videojuegos, streams en Twitch", "Gaming"},
		{"charlas", "Bunker de charlas y entrevistas con invitados", "Charlas"},
		{"accents fold", "MUSICA en vivo, covers y mas covers", "Música"},
		{"most matches wins", "tutorial de programación y desarrollo de código tech", "Tecnología"},
		{"nothing matches", "canal sin descripción útil", Default},
		{"empty", "", Default},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Detect(tc.text))
		})
	}
}

func TestDetectTieBreaksByTableOrder(t *testing.T) {
	// One keyword from each of two categories: the earlier table entry wins.
	assert.Equal(t, "Gaming", Detect("gaming y humor"))
}
