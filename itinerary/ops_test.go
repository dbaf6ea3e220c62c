package itinerary

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeOp(t *testing.T, s string) Op {
	t.Helper()
	var op Op
	require.NoError(t, json.Unmarshal([]byte(s), &op))
	return op
}

func TestApply(t *testing.T) {
	in := parisTrip()

	out, err := Apply(in, decodeOp(t, `{"op":"setField","field":"title","value":"Paris!"}`))
	require.NoError(t, err)
	assert.Equal(t, "Paris!", out.Title)

	out, err = Apply(in, decodeOp(t, `{"op":"setDayField","day":1,"field":"meals","value":{"lunch":"Picnic"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Picnic", out.Days[1].Meals.Lunch)

	out, err = Apply(in, decodeOp(t, `{"op":"updateActivity","day":0,"index":1,"value":"Canal cruise"}`))
	require.NoError(t, err)
	assert.Equal(t, "Canal cruise", out.Days[0].Activities[1])

	out, err = Apply(in, decodeOp(t, `{"op":"reorderDays","from":2,"to":0}`))
	require.NoError(t, err)
	assert.Equal(t, "2025-05-03", out.Days[0].Date)
	assert.Equal(t, 1, out.Days[0].Day)

	out, err = Apply(in, decodeOp(t, `{"op":"addTip"}`))
	require.NoError(t, err)
	assert.Len(t, out.Tips, 3)

	out, err = Apply(in, decodeOp(t, `{"op":"removeTip","index":1}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Buy a museum pass"}, out.Tips)
}

func TestApplySetDaysRenumbers(t *testing.T) {
	out, err := Apply(parisTrip(), decodeOp(t, `{"op":"setField","field":"days","value":[{"day":4,"date":"a"},{"day":4,"date":"b"}]}`))
	require.NoError(t, err)
	require.Len(t, out.Days, 2)
	assert.Equal(t, 1, out.Days[0].Day)
	assert.Equal(t, 2, out.Days[1].Day)
}

func TestApplyErrors(t *testing.T) {
	in := parisTrip()

	_, err := Apply(in, decodeOp(t, `{"op":"removeActivity","day":1,"index":4}`))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = Apply(in, decodeOp(t, `{"op":"reorderDays","from":0,"to":3}`))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = Apply(in, decodeOp(t, `{"op":"explode"}`))
	assert.ErrorIs(t, err, ErrUnknownOp)

	_, err = Apply(in, decodeOp(t, `{"op":"setField","field":"owner","value":"x"}`))
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = Apply(in, decodeOp(t, `{"op":"setField","field":"title","value":12}`))
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Apply(in, decodeOp(t, `{"op":"setField","field":"tips","value":null}`))
	assert.ErrorIs(t, err, ErrInvalidValue)

	for _, raw := range []string{
		`{"op":"setField","field":"title","value":null}`,
		`{"op":"setField","field":"title"}`,
		`{"op":"updateTip","index":0,"value":null}`,
	} {
		out, err := Apply(in, decodeOp(t, raw))
		assert.ErrorIs(t, err, ErrInvalidValue, raw)
		assert.Equal(t, "Paris Trip", out.Title, raw)
		assert.Equal(t, "Buy a museum pass", out.Tips[0], raw)
	}
}
