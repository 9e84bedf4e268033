package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	text, err := PlainText(
		"<h1>Crackers</h1><p>Crunchy<br>snack</p>" +
			"<h2>Ingredients</h2><ul><li>Flour</li><li>Peanut   Butter</li></ul>",
	)
	require.NoError(t, err)
	require.Equal(t, "Crackers\nCrunchy\nsnack\nIngredients\nFlour\nPeanut Butter", text)
}

func TestClean(t *testing.T) {
	require.Equal(t, "a b\nc", Clean("  a \t b \n\n\n c  "))
}
