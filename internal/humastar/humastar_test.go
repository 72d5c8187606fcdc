package humastar

import (
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"zone":"1","heatmap":true,"points":250}`))
	require.NoError(t, err)

	assert.Equal(t, "1", s.String("zone"))
	assert.True(t, s.Bool("heatmap"))
	assert.True(t, s.Has("zone"))
	assert.False(t, s.Has("missing"))
	assert.Empty(t, s.String("points"))
}

func TestSignalsInput(t *testing.T) {
	in := &SignalsInput{}
	s, err := in.MustParse()
	require.NoError(t, err)
	assert.Empty(t, s)

	in.RawBody = []byte("{nope")
	_, err = in.MustParse()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 400, se.GetStatus())
}
