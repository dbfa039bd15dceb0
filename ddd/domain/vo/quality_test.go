package vo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func presetNames(ps []QualityPreset) []Quality {
	out := make([]Quality, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Quality)
	}
	return out
}

func TestSelectRenditions(t *testing.T) {
	cases := []struct {
		height int
		want   []Quality
	}{
		{0, []Quality{Quality240p}},
		{144, []Quality{Quality240p}},
		{240, []Quality{Quality240p}},
		{479, []Quality{Quality240p}},
		{480, []Quality{Quality240p, Quality480p}},
		{720, []Quality{Quality240p, Quality480p, Quality720p}},
		{1080, []Quality{Quality240p, Quality480p, Quality720p, Quality1080p}},
		{1440, []Quality{Quality240p, Quality480p, Quality720p, Quality1080p}},
		{2160, []Quality{Quality240p, Quality480p, Quality720p, Quality1080p, Quality4K}},
		{4320, []Quality{Quality240p, Quality480p, Quality720p, Quality1080p, Quality4K}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, presetNames(SelectRenditions(tc.height)), "height=%d", tc.height)
	}
}

func TestSelectRenditions_MatchesLadderRule(t *testing.T) {
	for h := 0; h <= 2500; h += 7 {
		got := SelectRenditions(h)
		var want []QualityPreset
		for _, p := range Ladder() {
			if p.Height <= h {
				want = append(want, p)
			}
		}
		if len(want) == 0 {
			want = []QualityPreset{Ladder()[0]}
		}
		require.Equal(t, want, got, "height=%d", h)
	}
}

func TestParseQuality(t *testing.T) {
	for in, want := range map[string]Quality{"720p": Quality720p, "720": Quality720p, "4K": Quality4K, "2160p": Quality4K, " 1080P ": Quality1080p} {
		q, err := ParseQuality(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, q)
	}
	_, err := ParseQuality("360p")
	assert.Error(t, err)
}

func TestQualityFromHeight(t *testing.T) {
	q, ok := QualityFromHeight(360)
	assert.True(t, ok)
	assert.Equal(t, Quality240p, q)

	q, ok = QualityFromHeight(1440)
	assert.True(t, ok)
	assert.Equal(t, Quality1080p, q)

	_, ok = QualityFromHeight(144)
	assert.False(t, ok)
}

func TestMaxAllowedQuality(t *testing.T) {
	all := []Quality{Quality720p, Quality4K, Quality240p}

	q, ok := MaxAllowedQuality(all, AccessFree)
	require.True(t, ok)
	assert.Equal(t, Quality720p, q)

	for _, access := range []AccessType{AccessSubscription, AccessPurchase, AccessAdmin} {
		q, ok = MaxAllowedQuality(all, access)
		require.True(t, ok)
		assert.Equal(t, Quality4K, q, access)
	}

	q, _ = MaxAllowedQuality([]Quality{Quality480p}, AccessFree)
	assert.Equal(t, Quality480p, q)

	_, ok = MaxAllowedQuality(nil, AccessAdmin)
	assert.False(t, ok)
}

func TestSortQualitiesDesc(t *testing.T) {
	got := SortQualitiesDesc([]Quality{Quality480p, Quality1080p, Quality480p, "bogus", Quality4K})
	assert.Equal(t, []Quality{Quality4K, Quality1080p, Quality480p}, got)
}
