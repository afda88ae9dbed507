package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
)

func TestWrapDefaults(t *testing.T) {
	enc := rs485.NewEncoder(rs485.Standard())
	packets, err := enc.NewBatch().CancelAll().QueryVersion().Seal()
	require.NoError(t, err)

	data, err := Wrap(packets).Marshal()
	require.NoError(t, err)

	want := `{"error_str":"noerror","gpio_data":[{"action":"off","ionum":"io1"}],"error_num":0,` +
		`"rs485_data":[{"encodetype":"hex2string","data":"AA556C64002100010F67C7AF"},` +
		`{"encodetype":"hex2string","data":"` + packets[1].Hex() + `"}]}`
	assert.Equal(t, want, string(data))
}

func TestWrapOptions(t *testing.T) {
	e := WrapHex([]string{"AA55"}, WithGPIO("on", "io2"), WithError("busy", 3))
	assert.Equal(t, "busy", e.ErrorStr)
	assert.Equal(t, 3, e.ErrorNum)
	assert.Equal(t, []GPIO{{Action: "on", IONum: "io2"}}, e.GPIOData)
	require.Len(t, e.RS485Data, 1)
}

func TestWrapEmpty(t *testing.T) {
	data, err := Wrap(nil).Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rs485_data":[]`)
}

func TestParseAndFrames(t *testing.T) {
	raw := []byte(`{"error_str":"noerror","gpio_data":[{"action":"off","ionum":"io1"}],"error_num":0,` +
		`"rs485_data":[{"encodetype":"hex2string","data":"aa556c6400010000705eaf"}]}`)
	e, err := Parse(raw)
	require.NoError(t, err)

	frames, err := e.Frames()
	require.NoError(t, err)
	require.Len(t, frames, 1)

	f, err := rs485.ParseFrame(frames[0], rs485.CRCZeroFilledBE)
	require.NoError(t, err)
	assert.Equal(t, byte(rs485.CmdQueryVersion), f.Command)

	e.RS485Data[0].EncodeType = "base64"
	_, err = e.Frames()
	assert.Error(t, err)

	e.RS485Data[0] = RS485Data{EncodeType: EncodeHex, Data: "ABC"}
	_, err = e.Frames()
	assert.ErrorIs(t, err, rs485.ErrInvalidInput)

	_, err = Parse([]byte("{"))
	assert.Error(t, err)
}
