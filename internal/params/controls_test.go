package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker-studio/internal/model"
)

func TestCollect_Defaults(t *testing.T) {
	p := New().Collect()
	assert.Equal(t, model.RenderParameters{
		Shape:           ShapeRectangle,
		BoxColor:        "#00ff00",
		StrokeWidth:     2,
		Connection:      ConnectionNone,
		ConnectionColor: "#ff9600",
		LabelType:       LabelNone,
		CustomText:      "",
		TextColor:       "#ffffff",
		MaxBlobs:        32,
		MinBlobSize:     64,
	}, p)
}

func TestSet_ClampsRanges(t *testing.T) {
	c := New()
	require.NoError(t, c.Set(model.FieldStrokeWidth, "99"))
	require.NoError(t, c.Set(model.FieldMaxBlobs, "0"))
	require.NoError(t, c.Set(model.FieldMinSize, "300px"))

	p := c.Collect()
	assert.Equal(t, 10, p.StrokeWidth)
	assert.Equal(t, 1, p.MaxBlobs)
	assert.Equal(t, 256, p.MinBlobSize)
	assert.Equal(t, "256px", c.Display(model.FieldMinSize))
}

func TestSet_RejectsInvalidValues(t *testing.T) {
	c := New()
	assert.Error(t, c.Set(model.FieldShape, "Hexagon"))
	assert.Error(t, c.Set(model.FieldBoxColor, "green"))
	assert.Error(t, c.Set(model.FieldStrokeWidth, "wide"))
	assert.Error(t, c.Set("nope", "1"))
	assert.Equal(t, ShapeRectangle, c.Get(model.FieldShape))
}

func TestSet_NormalizesSelectAndColor(t *testing.T) {
	c := New()
	require.NoError(t, c.Set(model.FieldConnection, "central hub"))
	require.NoError(t, c.Set(model.FieldTextColor, "ABC"))
	assert.Equal(t, ConnectionHub, c.Get(model.FieldConnection))
	assert.Equal(t, "#aabbcc", c.Get(model.FieldTextColor))
}

func TestStep_CyclesAndClamps(t *testing.T) {
	c := New()
	c.Step(model.FieldShape, -1)
	assert.Equal(t, ShapeCrosshair, c.Get(model.FieldShape))
	c.Step(model.FieldShape, 1)
	assert.Equal(t, ShapeRectangle, c.Get(model.FieldShape))

	c.Step(model.FieldStrokeWidth, -5)
	assert.Equal(t, "1", c.Get(model.FieldStrokeWidth))
}

func TestCustomTextVisible(t *testing.T) {
	c := New()
	assert.False(t, c.CustomTextVisible())
	require.NoError(t, c.Set(model.FieldLabelType, LabelCustom))
	assert.True(t, c.CustomTextVisible())
}

func TestCollect_NeverEmitsEmptyRequiredField(t *testing.T) {
	c := &Controls{values: map[string]string{}}
	for _, f := range c.Collect().FormFields() {
		if f.Name == model.FieldCustomText {
			continue
		}
		assert.NotEmpty(t, f.Value, f.Name)
	}
}

func TestFromParameters_RoundTripsCollectedValues(t *testing.T) {
	src := New()
	require.NoError(t, src.Apply(map[string]string{
		model.FieldMaxBlobs:   "5",
		model.FieldLabelType:  LabelCustom,
		model.FieldCustomText: "hi",
	}))
	c, err := FromParameters(src.Collect())
	require.NoError(t, err)
	assert.Equal(t, src.Collect(), c.Collect())
}
