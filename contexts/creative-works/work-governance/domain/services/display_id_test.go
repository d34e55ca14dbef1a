package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTitleAcronym(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{title: "The Great Gatsby", want: "TGG"},
		{title: "Été à Paris", want: "EAP"},
		{title: "  spaced   out  ", want: "SO"},
		{title: "¡Hola mundo", want: "HM"},
		{title: "42 variations", want: "4V"},
		{title: "night 9lives ...", want: "N9"},
		{title: "   ", want: "W"},
		{title: "...", want: "W"},
	}
	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, TitleAcronym(tc.title))
		})
	}
}

func TestDisplayIDAppendsMillis(t *testing.T) {
	createdAt := time.UnixMilli(1700000000000)
	assert.Equal(t, "TGG1700000000000", DisplayID("The Great Gatsby", createdAt))
}
