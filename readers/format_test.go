package readers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_FormatOf(t *testing.T) {
	var cases = []struct {
		path   string
		format Format
		err    error
	}{
		{path: "lore/stormcast_eternals.html", format: FormatHTML},
		{path: "lore/NIGHTHAUNT.HTM", format: FormatHTML},
		{path: "rules/notes.txt", format: FormatText},
		{path: "rules_update/aos_core_rules_2024.pdf", format: FormatPDF},
		{path: "guides/army.docx", err: ErrUnsupported},
		{path: "guides/README", err: ErrUnsupported},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			f, err := FormatOf(c.path)
			assert.ErrorIs(t, err, c.err)
			assert.Equal(t, c.format, f)
		})
	}
}

func Test_NormalizeLines(t *testing.T) {
	assert.Equal(t, "a\nb c", NormalizeLines("  a  \n\n\t\n b c\n"))
	assert.Equal(t, "", NormalizeLines(" \n \n"))
}
