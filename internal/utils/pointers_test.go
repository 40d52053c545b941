package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-session-relay/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPointers(t *testing.T) {
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, "x", utils.Value(utils.Ptr("x")))
	require.Nil(t, utils.NonZero(""))
	require.Nil(t, utils.NonZero(0))
	require.Equal(t, "refresh", *utils.NonZero("refresh"))
}
