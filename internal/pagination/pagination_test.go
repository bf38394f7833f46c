package pagination

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{name: "zero value", in: Params{}, want: Params{Page: 1, Limit: DefaultLimit}},
		{name: "negative page", in: Params{Page: -3, Limit: 5}, want: Params{Page: 1, Limit: 5}},
		{name: "limit above max", in: Params{Page: 2, Limit: 1000}, want: Params{Page: 2, Limit: MaxLimit}},
		{name: "valid", in: Params{Page: 4, Limit: 10}, want: Params{Page: 4, Limit: 10}},
		{name: "page above max", in: Params{Page: math.MaxInt, Limit: 10}, want: Params{Page: MaxPage, Limit: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestParams_Offset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, Params{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, Params{}.Offset())
}

func TestFromQuery(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Params{Page: 2, Limit: 50}, FromQuery(url.Values{"page": {"2"}, "limit": {"50"}}))
	assert.Equal(t, Params{Page: 1, Limit: DefaultLimit}, FromQuery(url.Values{"page": {"abc"}}))

	huge := FromQuery(url.Values{"page": {"9223372036854775807"}, "limit": {"100"}})
	assert.Equal(t, MaxPage, huge.Page)
	assert.GreaterOrEqual(t, huge.Offset(), 0)
	assert.LessOrEqual(t, huge.Offset(), math.MaxInt32)
}

func TestNewPage(t *testing.T) {
	t.Parallel()

	p := NewPage([]string{"a", "b"}, Params{Page: 1, Limit: 2}, 5)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 5, p.Total)

	empty := NewPage[string](nil, Params{}, 0)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestMap(t *testing.T) {
	t.Parallel()

	in := NewPage([]int{1, 2}, Params{Page: 1, Limit: 2}, 4)
	out := Map(in, func(i int) int { return i * 10 })

	assert.Equal(t, []int{10, 20}, out.Items)
	assert.Equal(t, 2, out.TotalPages)
}
