package gmb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseListing_FullListing(t *testing.T) {
	raw := listingHTML("Ace Plumbing", "4.5 (1,234) · Plumber",
		"10+ years in business · Springfield",
		"12 High Street, Springfield",
		"098765 43210",
		"Open ⋅ Closes 6 pm",
	)

	fragment, err := FragmentFromHTML(raw)
	require.NoError(t, err)
	l := ParseListing(fragment, "plumbers near me")

	assert.Equal(t, "plumbers near me", l.Keyword)
	require.NotNil(t, l.Name)
	assert.Equal(t, "Ace Plumbing", *l.Name)
	require.NotNil(t, l.Rating)
	assert.InDelta(t, 4.5, *l.Rating, 1e-9)
	require.NotNil(t, l.ReviewCount)
	assert.Equal(t, 1234, *l.ReviewCount)
	require.NotNil(t, l.Category)
	assert.Equal(t, "Plumber", *l.Category)
	require.NotNil(t, l.YearsInBusiness)
	assert.Equal(t, "10+", *l.YearsInBusiness)
	require.NotNil(t, l.Phone)
	assert.Equal(t, "098765 43210", *l.Phone)
	require.NotNil(t, l.Address)
	assert.Equal(t, "12 High Street, Springfield", *l.Address)
}

func TestParseListing_RatingLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		rating   *float64
		reviews  *int
		category *string
	}{
		{
			name:     "spaced reviews",
			line:     "4.5 (1,234) · Plumber",
			rating:   func() *float64 { v := 4.5; return &v }(),
			reviews:  func() *int { v := 1234; return &v }(),
			category: strPtr("Plumber"),
		},
		{
			name:     "no grouping",
			line:     "3.9(87) · Electrician",
			rating:   func() *float64 { v := 3.9; return &v }(),
			reviews:  func() *int { v := 87; return &v }(),
			category: strPtr("Electrician"),
		},
		{
			name:     "no rating yet",
			line:     "No reviews · Locksmith",
			category: strPtr("Locksmith"),
		},
		{
			name:    "blank category",
			line:    "4.8 (12) · ",
			rating:  func() *float64 { v := 4.8; return &v }(),
			reviews: func() *int { v := 12; return &v }(),
		},
		{
			name:   "rating only",
			line:   "5.0",
			rating: func() *float64 { v := 5.0; return &v }(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ParseListing(Fragment{RatingLine: strPtr(tt.line)}, "kw")

			if tt.rating == nil {
				assert.Nil(t, l.Rating)
			} else {
				require.NotNil(t, l.Rating)
				assert.InDelta(t, *tt.rating, *l.Rating, 1e-9)
			}
			assert.Equal(t, tt.reviews, l.ReviewCount)
			assert.Equal(t, tt.category, l.Category)
		})
	}
}

func TestParseListing_MissingRatingElement(t *testing.T) {
	l := ParseListing(Fragment{Name: strPtr("Quiet Shop")}, "kw")

	require.NotNil(t, l.Name)
	assert.Nil(t, l.Rating)
	assert.Nil(t, l.ReviewCount)
	assert.Nil(t, l.Category)
}

func TestParseListing_YearsInBusiness(t *testing.T) {
	tests := []struct {
		block string
		want  *string
	}{
		{"12 years in business", strPtr("12")},
		{"10+ years in business", strPtr("10+")},
		{"5 Years In Business · Leeds", strPtr("5")},
		{"Family run for years", nil},
	}

	for _, tt := range tests {
		t.Run(tt.block, func(t *testing.T) {
			l := ParseListing(Fragment{Blocks: []string{tt.block}}, "kw")
			assert.Equal(t, tt.want, l.YearsInBusiness)
		})
	}
}

func TestParseListing_Phone(t *testing.T) {
	tests := []struct {
		name   string
		blocks []string
		want   *string
	}{
		{"split five and five", []string{"Builder", "09876 54321"}, strPtr("09876 54321")},
		{"ten digits", []string{"Builder", "0123456789"}, strPtr("0123456789")},
		{"too few digits", []string{"Builder", "Call 1234 567"}, nil},
		{
			name:   "only the first candidate counts",
			blocks: []string{"Unit 1234 567 then", "0123456789"},
			want:   nil,
		},
		{"no digits", []string{"Builder", "Call us"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ParseListing(Fragment{Blocks: tt.blocks}, "kw")
			assert.Equal(t, tt.want, l.Phone)
		})
	}
}

func TestParseListing_AddressSkipsNonAddressBlocks(t *testing.T) {
	f := Fragment{Blocks: []string{
		"",
		"Short St",
		"20 years in business nearby",
		"4.1 (9) · Bakery on the corner",
		"Closes soon, come round the back",
		"On-site services available today",
		"5 Market Road 0123456789 Springfield",
		"7 Harbour View, Portsmouth",
	}}

	l := ParseListing(f, "kw")

	require.NotNil(t, l.Phone)
	assert.Equal(t, "0123456789", *l.Phone)
	require.NotNil(t, l.Address)
	assert.Equal(t, "7 Harbour View, Portsmouth", *l.Address)
}

func TestParseListing_NoAddressCandidate(t *testing.T) {
	f := Fragment{Blocks: []string{"Depot", "Open 24 hours at the depot"}}

	l := ParseListing(f, "kw")

	assert.Nil(t, l.Address)
}

func TestParseListing_EmptyFragment(t *testing.T) {
	l := ParseListing(Fragment{}, "kw")

	assert.Equal(t, "kw", l.Keyword)
	assert.False(t, l.HasName())
	assert.Nil(t, l.Rating)
	assert.Nil(t, l.ReviewCount)
	assert.Nil(t, l.Category)
	assert.Nil(t, l.YearsInBusiness)
	assert.Nil(t, l.Address)
	assert.Nil(t, l.Phone)
}

func TestFragmentFromHTML_VisibleText(t *testing.T) {
	raw := `<div class="rllt__details">` +
		`<div class="dbg0pd"><span>  Joe's   <b>Plumbing</b></span></div>` +
		`<div>12 High<br>Street,<div>Springfield</div></div>` +
		`<span>not a block</span>` +
		`</div>`

	f, err := FragmentFromHTML(raw)
	require.NoError(t, err)

	require.NotNil(t, f.Name)
	assert.Equal(t, "Joe's Plumbing", *f.Name)
	assert.Nil(t, f.RatingLine)
	assert.Equal(t, []string{"Joe's Plumbing", "12 High Street, Springfield"}, f.Blocks)
}

func TestFragmentFromHTML_Empty(t *testing.T) {
	_, err := FragmentFromHTML("")
	assert.Error(t, err)
}
