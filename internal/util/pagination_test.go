package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		page, size, from, limit int
	}{
		{1, 10, 0, 10},
		{2, 10, 10, 10},
		{3, 25, 50, 25},
		{0, 10, 0, 10},
		{-5, 10, 0, 10},
		{1, 0, 0, DefaultPageSize},
		{1, -1, 0, DefaultPageSize},
		{2, 500, 10, DefaultPageSize},
	}

	for _, tc := range cases {
		from, limit := Calculate(tc.page, tc.size)
		require.Equal(t, tc.from, from, "page=%d size=%d", tc.page, tc.size)
		require.Equal(t, tc.limit, limit, "page=%d size=%d", tc.page, tc.size)
	}
}
