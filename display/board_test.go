package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_UnknownElementsAreIgnored(t *testing.T) {
	b := NewBoard(Date)

	assert.False(t, b.SetText("nope", "x"))
	assert.False(t, b.AddClass("nope", "flip"))
	assert.False(t, b.RemoveClass("nope", "flip"))
	assert.False(t, b.SetStyle("nope", "color", "red"))
	_, ok := b.Text("nope")
	assert.False(t, ok)

	els, seq := b.Snapshot()
	assert.Len(t, els, 1)
	assert.Zero(t, seq)
}

func TestBoard_WritesPublishOnlyOnChange(t *testing.T) {
	b := NewBoard(FineDust)
	_, ch, cancel := b.Subscribe()
	defer cancel()

	require.True(t, b.SetText(FineDust, "미세먼지 좋음"))
	require.True(t, b.SetText(FineDust, "미세먼지 좋음"))
	require.True(t, b.SetStyle(FineDust, "color", "#3498db"))
	require.True(t, b.SetStyle(FineDust, "color", "#3498db"))
	require.True(t, b.AddClass(FineDust, "flip"))
	require.True(t, b.AddClass(FineDust, "flip"))
	require.True(t, b.RemoveClass(FineDust, "flip"))
	require.True(t, b.RemoveClass(FineDust, "flip"))

	want := []Patch{
		{Seq: 1, ID: FineDust, Kind: PatchText, Value: "미세먼지 좋음"},
		{Seq: 2, ID: FineDust, Kind: PatchStyle, Name: "color", Value: "#3498db"},
		{Seq: 3, ID: FineDust, Kind: PatchAddClass, Name: "flip"},
		{Seq: 4, ID: FineDust, Kind: PatchRemoveClass, Name: "flip"},
	}
	for _, w := range want {
		assert.Equal(t, w, <-ch)
	}
	assert.Empty(t, ch)

	_, seq := b.Snapshot()
	assert.Equal(t, uint64(4), seq)
}

func TestBoard_Snapshot(t *testing.T) {
	b := NewBoard(MinutesOnes, HoursTens)
	b.SetText(HoursTens, "1")
	b.AddClass(HoursTens, "b")
	b.AddClass(HoursTens, "a")
	b.SetStyle(MinutesOnes, "color", "red")

	els, seq := b.Snapshot()
	assert.Equal(t, uint64(4), seq)
	assert.Equal(t, []Element{
		{ID: HoursTens, Text: "1", Classes: []string{"a", "b"}},
		{ID: MinutesOnes, Style: map[string]string{"color": "red"}},
	}, els)

	// the snapshot is a copy
	els[1].Style["color"] = "blue"
	v, _ := b.Style(MinutesOnes, "color")
	assert.Equal(t, "red", v)
	assert.True(t, b.HasClass(HoursTens, "a"))
	assert.False(t, b.HasClass(HoursTens, "flip"))
}

func TestBoard_SubscribeCancel(t *testing.T) {
	b := NewBoard(Date)
	id1, ch1, cancel1 := b.Subscribe()
	id2, _, cancel2 := b.Subscribe()
	defer cancel2()

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, b.SubscriberCount())

	cancel1()
	cancel1()
	assert.Equal(t, 1, b.SubscriberCount())
	_, open := <-ch1
	assert.False(t, open)

	assert.True(t, b.SetText(Date, "x"))
}

func TestBoard_SlowSubscriberDropsPatches(t *testing.T) {
	b := NewBoard(Date)
	b.bufferSize = 2
	_, ch, cancel := b.Subscribe()
	defer cancel()

	for _, v := range []string{"a", "b", "c", "d"} {
		b.SetText(Date, v)
	}

	assert.Len(t, ch, 2)
	assert.Equal(t, uint64(1), (<-ch).Seq)
	assert.Equal(t, uint64(2), (<-ch).Seq)
	text, _ := b.Text(Date)
	assert.Equal(t, "d", text)
}

func TestDefaultLayout(t *testing.T) {
	ids := DefaultLayout()
	assert.Len(t, ids, 19)
	assert.Contains(t, ids, "hours-tens-new")
	assert.Contains(t, ids, "minutes-ones-card")
	assert.Contains(t, ids, FineDust)

	b := NewDefaultBoard()
	for _, id := range ids {
		_, ok := b.Text(id)
		assert.True(t, ok, id)
	}
	assert.Equal(t, "hours-ones-new", BackFace(HoursOnes))
	assert.Equal(t, "hours-ones-card", FlipCard(HoursOnes))
	assert.Equal(t, []string{HoursTens, HoursOnes, MinutesTens, MinutesOnes}, DigitIDs())
}
