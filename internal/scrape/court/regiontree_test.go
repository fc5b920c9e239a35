package court

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"courtparser-engine/internal/browser/browsertest"
	"courtparser-engine/internal/regions"
)

func TestTreeSelectExpandsDistrictBeforeRegion(t *testing.T) {
	p := browsertest.New("https://court.test/extended-search", formHTML)
	ts := NewTreeSelector(regions.Default(), testOptions())

	require.NoError(t, ts.Select(context.Background(), p, []string{"Калмыкия"}))

	a := p.Actions()
	trigger := indexOf(a, "click-el #tree")
	expand := indexOf(a, "click-el span.aciTreeButton")
	tick := indexOf(a, "click-el #kalm-check")
	confirm := indexOf(a, "click-el #apply")

	require.GreaterOrEqual(t, trigger, 0, a)
	require.Greater(t, expand, trigger, a)
	require.Greater(t, tick, expand, a)
	require.Greater(t, confirm, tick, a)
}

func TestTreeSkipsExpandedAndChecked(t *testing.T) {
	p := browsertest.New("https://court.test/extended-search", formHTML)
	ts := NewTreeSelector(regions.Default(), testOptions())

	require.NoError(t, ts.Select(context.Background(), p, []string{"Татарстан"}))
	require.False(t, p.Did("click-el #volga-btn"))
	require.False(t, p.Did("click-el #tat-check"))
}

func TestTreeFallbackTiers(t *testing.T) {
	p := browsertest.New("https://court.test/extended-search", `<html><body>
<div class="aciTree">
 <span class="aciTreeText">Приволжский ФО</span>
 <span class="aciTreeText">г. Пенза, Пензенская область</span>
</div></body></html>`)
	ts := NewTreeSelector(regions.Default(), testOptions())

	require.NoError(t, ts.Select(context.Background(), p, []string{"Пензенская область"}))

	a := p.Actions()
	require.GreaterOrEqual(t, indexOf(a, "click-el span.aciTreeText г. Пенза"), 0, a)
	// no confirm button: outside click wins
	require.GreaterOrEqual(t, indexOf(a, "click body"), 0, a)
	require.Equal(t, -1, indexOf(a, "press Escape"))
}

func TestTreeUnavailable(t *testing.T) {
	p := browsertest.New("https://court.test/extended-search", `<html><body>no tree</body></html>`)
	err := NewTreeSelector(regions.Default(), testOptions()).Select(context.Background(), p, []string{"Москва"})
	require.ErrorIs(t, err, ErrTreeUnavailable)

	hidden := browsertest.New("https://court.test/extended-search",
		`<html><body><span id="tree">x</span><div class="aciTree" style="display:none"></div></body></html>`)
	err = NewTreeSelector(regions.Default(), testOptions()).Select(context.Background(), hidden, []string{"Москва"})
	require.ErrorIs(t, err, ErrTreeUnavailable)
}

func TestTreeDistrictOnlyTicksDistrictNode(t *testing.T) {
	p := browsertest.New("https://court.test/extended-search", formHTML)
	ts := NewTreeSelector(regions.Default(), testOptions())

	require.NoError(t, ts.Select(context.Background(), p, []string{"Южный федеральный округ"}))
	require.True(t, p.Did("click-el #south-check"))
}
