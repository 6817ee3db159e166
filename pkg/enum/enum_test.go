package enum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type color string

var (
	colorRed  = New(color("red"))
	colorBlue = New(color("blue"))
)

func Test_ToEnum(t *testing.T) {
	red, err := ToEnum[color]("red")
	require.NoError(t, err)
	require.Equal(t, colorRed, red)

	blue, err := ToEnum[color]("blue")
	require.NoError(t, err)
	require.Equal(t, colorBlue, blue)

	_, err = ToEnum[color]("green")
	require.Error(t, err)
}

type flavor string

func Test_ToEnum_unregisteredType(t *testing.T) {
	_, err := ToEnum[flavor]("sweet")
	require.Error(t, err)
}
