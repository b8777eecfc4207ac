package hammer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelDescriptor(t *testing.T) {
	tests := []struct {
		channel Channel
		want    string
	}{
		{ChannelBD, "BtoD"},
		{ChannelBDst, "BtoD*"},
		{ChannelBD0st, "BtoD**0*"},
		{ChannelBD2st, "BtoD**2*"},
		{ChannelBsDs1, "BstoDs**1"},
		{ChannelBsDs2st, "BstoDs**2*"},
	}

	for _, tt := range tests {
		t.Run(tt.channel.Decay(), func(t *testing.T) {
			if got := tt.channel.Descriptor(); got != tt.want {
				t.Errorf("Descriptor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseChannel(t *testing.T) {
	for _, c := range Channels {
		got, err := ParseChannel(c.Decay())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseChannel("BK*")
	assert.Error(t, err)
	assert.Equal(t, "channel(99)", Channel(99).Decay())
}

func TestChannelFormFactors(t *testing.T) {
	assert.Equal(t, "BGL", ChannelBDst.OutputFF())
	assert.Equal(t, "BLR", ChannelBsDs1.OutputFF())

	ff, ok := ChannelBD.InputFF(Run1)
	assert.True(t, ok)
	assert.Equal(t, "ISGW2", ff)

	_, ok = ChannelBD1.InputFF(Run1)
	assert.False(t, ok)

	ff, ok = ChannelBDst.InputFF(Run2)
	assert.True(t, ok)
	assert.Equal(t, "CLN_1", ff)

	ff, _ = ChannelBD2st.InputFF(Run2)
	assert.Equal(t, "ISGW2", ff)
}

func TestChannelDefaults(t *testing.T) {
	for _, c := range Channels {
		assert.NotEmpty(t, c.Defaults(), c.Decay())
	}
	assert.Equal(t, ChannelBD1.Defaults(), ChannelBsDs1.Defaults())
	assert.Equal(t, Option{Param: "Vcb", Value: "0.0384"}, ChannelBDst.Defaults()[0])
	assert.Equal(t, []string{"BsDs**2*MuNu"}, ChannelBsDs2st.IncludedDecays())
}
