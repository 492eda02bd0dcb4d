package codec_test

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/DangerosoDavo/simstore/codec"
)

type position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

type positionV2 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func TestJSONCodecRoundTrip(t *testing.T) {
	bz, err := codec.JSON.Marshal(position{X: 1.5, Y: -2})
	assert.NilError(t, err)

	var got position
	assert.NilError(t, codec.JSON.Unmarshal(bz, &got))
	assert.Equal(t, got, position{X: 1.5, Y: -2})
}

func TestDecodeReportsMalformedInput(t *testing.T) {
	_, err := codec.Decode[position]([]byte("{not json"))
	assert.ErrorContains(t, err, "json unmarshal")
}

func TestByName(t *testing.T) {
	c, err := codec.ByName("json")
	assert.NilError(t, err)
	assert.Equal(t, c.Name(), "json")

	_, err = codec.ByName("bincode")
	assert.ErrorContains(t, err, "unknown codec")
}

func TestSchemaDiff(t *testing.T) {
	a, err := codec.Schema(position{})
	assert.NilError(t, err)
	same, err := codec.Schema(position{})
	assert.NilError(t, err)
	b, err := codec.Schema(positionV2{})
	assert.NilError(t, err)

	diff, err := codec.SchemaDiff(a, same)
	assert.NilError(t, err)
	assert.Equal(t, diff, "")

	diff, err = codec.SchemaDiff(a, b)
	assert.NilError(t, err)
	assert.Assert(t, diff != "")
}

type point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func TestSchemaIgnoresTypeName(t *testing.T) {
	a, err := codec.Schema(position{})
	assert.NilError(t, err)
	b, err := codec.Schema(point{})
	assert.NilError(t, err)

	diff, err := codec.SchemaDiff(a, b)
	assert.NilError(t, err)
	assert.Equal(t, diff, "")
}
