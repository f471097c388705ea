package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePreviewImages(t *testing.T) {
	raw, err := EncodePreviewImages([]string{"a.png", "b.png"})
	require.NoError(t, err)
	assert.Equal(t, `["a.png","b.png"]`, raw)

	raw, err = EncodePreviewImages(nil)
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)
}

func TestDecodePreviewImages(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "ordered list", raw: `["b.png","a.png"]`, want: []string{"b.png", "a.png"}},
		{name: "empty array", raw: `[]`, want: []string{}},
		{name: "blank column", raw: "  ", want: []string{}},
		{name: "json null", raw: "null", want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodePreviewImages(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodePreviewImagesRejectsGarbage(t *testing.T) {
	_, err := DecodePreviewImages(`a.png,b.png`)
	assert.Error(t, err)
}

func TestPlacePurchasable(t *testing.T) {
	price := 500
	assert.True(t, Place{TicketPrice: &price}.Purchasable())
	assert.False(t, Place{}.Purchasable())
}
