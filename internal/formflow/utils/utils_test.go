package utils

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckInSlice(t *testing.T) {
	t.Run("all present", func(t *testing.T) {
		assert.True(t, CheckInSlice([]string{"a", "b", "c"}, "a", "c"))
	})

	t.Run("missing element", func(t *testing.T) {
		assert.False(t, CheckInSlice([]string{"a", "b"}, "a", "z"))
	})

	t.Run("empty query always true", func(t *testing.T) {
		assert.True(t, CheckInSlice([]string{}))
	})
}

func TestSliceToSlice(t *testing.T) {
	t.Run("converts elements", func(t *testing.T) {
		in := []int{1, 2, 3}
		out := SliceToSlice(&in, func(v *int) string { return strconv.Itoa(*v) })
		assert.Equal(t, []string{"1", "2", "3"}, out)
	})

	t.Run("nil slice gives empty result", func(t *testing.T) {
		out := SliceToSlice[int, string](nil, func(v *int) string { return "" })
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})
}

func TestSliceToMap(t *testing.T) {
	in := []string{"aa", "b", "ccc"}
	out := SliceToMap(&in, func(v *string) int { return len(*v) })
	assert.Equal(t, map[int]string{2: "aa", 1: "b", 3: "ccc"}, out)
}

func TestCheckHttps(t *testing.T) {
	t.Run("port 80 forces http", func(t *testing.T) {
		u, _ := url.Parse("https://example.com:80/path")
		assert.Equal(t, "http", CheckHttps(u).Scheme)
	})

	t.Run("missing scheme defaults to https", func(t *testing.T) {
		u := &url.URL{Host: "example.com"}
		assert.Equal(t, "https", CheckHttps(u).Scheme)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, CheckHttps(nil))
	})
}
