package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderDecodesJSONParams(t *testing.T) {
	var cmd Command
	raw := `{"service":"frame","command":"setBounds","windowId":"w1",
		"params":{"x":10,"y":20.5,"animate":true,"keys":[1,2,3],"anchor":"center","config":{"gap":4}}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &cmd))

	r := cmd.Params.Reader()
	assert.Equal(t, 10.0, r.Float("x", 0))
	assert.Equal(t, 20.5, r.Float("y", 0))
	assert.Equal(t, 99.0, r.Float("width", 99))
	assert.True(t, r.Bool("animate", false))
	assert.Equal(t, []int64{1, 2, 3}, r.Int64s("keys"))
	assert.Equal(t, "center", r.String("anchor", ""))
	assert.Equal(t, 4.0, r.Map("config").Reader().Float("gap", 0))
	assert.Nil(t, r.OptFloat("height"))
	require.NoError(t, r.Err())
	assert.Equal(t, "frame/setBounds[w1]", cmd.String())
}

func TestReaderRecordsFirstFailure(t *testing.T) {
	r := Params{"x": "ten", "y": true}.Reader()
	r.Float("x", 0)
	r.Float("y", 0)

	err := r.Err()
	require.Error(t, err)
	assert.Equal(t, CodeInvalidParams, CodeOf(err))
	assert.Contains(t, err.Error(), `"x"`)
}

func TestRequireString(t *testing.T) {
	r := Params{}.Reader()
	r.RequireString("targetId")
	assert.Equal(t, CodeInvalidParams, CodeOf(r.Err()))
}

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("w1"))
	assert.True(t, errors.Is(err, NotFound("other")))
	assert.False(t, errors.Is(err, AlreadyExists("w1")))
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestFailWrapsForeignErrors(t *testing.T) {
	res := Fail(errors.New("boom"))
	assert.Equal(t, StatusError, res.Status)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeInternal, res.Error.Code)

	res = Fail(TargetNotFound("t"))
	assert.Equal(t, CodeTargetNotFound, res.Error.Code)
	assert.Error(t, res.Err())
	assert.NoError(t, OK(nil).Err())
}
