package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckCodes(t *testing.T) {
	var out bytes.Buffer
	invalid := checkCodes(&out, []string{"044000882105", "044000882104", "04400088210", "abc"})
	require.Equal(t, 3, invalid)
	require.Equal(t,
		"044000882105: valid\n"+
			"044000882104: invalid\n"+
			"04400088210: invalid, did you mean 044000882105?\n"+
			"abc: invalid\n",
		out.String(),
	)
}
