package hammer

import (
	"fmt"
	"strings"
)

// Channel is a semileptonic B decay family with its own form-factor model.
type Channel int

const (
	ChannelBD Channel = iota
	ChannelBDst
	ChannelBD0st
	ChannelBD1
	ChannelBD1st
	ChannelBD2st
	ChannelBsDs1
	ChannelBsDs2st
)

// Channels lists every channel in configuration order.
var Channels = []Channel{
	ChannelBD, ChannelBDst,
	ChannelBD0st, ChannelBD1, ChannelBD1st, ChannelBD2st,
	ChannelBsDs1, ChannelBsDs2st,
}

// Decay returns the engine's name for the hadronic transition.
func (c Channel) Decay() string {
	switch c {
	case ChannelBD:
		return "BD"
	case ChannelBDst:
		return "BD*"
	case ChannelBD0st:
		return "BD**0*"
	case ChannelBD1:
		return "BD**1"
	case ChannelBD1st:
		return "BD**1*"
	case ChannelBD2st:
		return "BD**2*"
	case ChannelBsDs1:
		return "BsDs**1"
	case ChannelBsDs2st:
		return "BsDs**2*"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

func (c Channel) String() string { return c.Decay() }

// ParseChannel maps an engine decay name back to its channel.
func ParseChannel(s string) (Channel, error) {
	for _, c := range Channels {
		if c.Decay() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown decay channel %q", s)
}

// Descriptor returns the form-factor descriptor prefix, e.g. "BtoD*".
func (c Channel) Descriptor() string {
	d := c.Decay()
	i := strings.Index(d, "D")
	if i < 0 {
		return d
	}
	return d[:i] + "to" + d[i:]
}

// OutputFF returns the target form-factor parametrisation.
func (c Channel) OutputFF() string {
	switch c {
	case ChannelBD, ChannelBDst:
		return "BGL"
	default:
		return "BLR"
	}
}

// InputFF returns the form-factor model the simulation was generated with.
// Run 1 only configures the ground-state channels.
func (c Channel) InputFF(run Run) (string, bool) {
	switch run {
	case Run1:
		if c == ChannelBD || c == ChannelBDst {
			return "ISGW2", true
		}
		return "", false
	case Run2:
		if c == ChannelBD || c == ChannelBDst {
			return "CLN_1", true
		}
		return "ISGW2", true
	}
	return "", false
}

// IncludedDecays returns the full decay names the engine should reweight
// for c, tau modes first.
func (c Channel) IncludedDecays() []string {
	switch c {
	case ChannelBsDs1, ChannelBsDs2st:
		return []string{c.Decay() + "MuNu"}
	default:
		return []string{c.Decay() + "TauNu", c.Decay() + "MuNu"}
	}
}

// Defaults returns the nominal parameters of the output parametrisation.
func (c Channel) Defaults() Options {
	switch c {
	case ChannelBD:
		return Options{
			{"ChiT", "0.0005131"},
			{"ChiL", "0.006332"},
			{"BcStatesp", "[6.329, 6.92, 7.02]"},
			{"BcStates0", "[6.716, 7.121]"},
			{"ap", "[0.01566, -0.0342, -0.09, 0.0]"},
			{"a0", "[0.07935, -0.205, -0.23, 0.0]"},
		}
	case ChannelBDst:
		return Options{
			{"Vcb", "0.0384"},
			{"Chim", "0.0003894"},
			{"Chip", "0.0005131"},
			{"ChimL", "0.019421"},
			{"BcStatesf", "[6.739, 6.75, 7.145, 7.15]"},
			{"BcStatesg", "[6.329, 6.92, 7.02]"},
			{"BcStatesP1", "[6.275, 6.842, 7.25]"},
			{"avec", "[0.0012407754239999998, -0.005682055679999999, -0.0243516672]"},
			{"bvec", "[0.00048278146559999996, 8.117222399999999e-05, 0.0027057408]"},
			{"cvec", "[2.39651328e-05, 0.0023192063999999996, -0.036334233599999995]"},
			{"dvec", "[0.002052497664, -0.00776934144, 2.7057407999999998e-05]"},
		}
	case ChannelBD0st, ChannelBD1st:
		return Options{
			{"as", "0.26"},
			{"mb", "4.71"},
			{"mc", "1.31"},
			{"zt1", "0.7"},
			{"ztp", "0.2"},
			{"zeta1", "0.6"},
			{"chi1", "0.0"},
			{"chi2", "0.0"},
			{"laB", "0.4"},
			{"laS", "0.76"},
		}
	case ChannelBD1, ChannelBD2st, ChannelBsDs1, ChannelBsDs2st:
		return Options{
			{"as", "0.26"},
			{"mb", "4.71"},
			{"mc", "1.31"},
			{"t1", "0.7"},
			{"tp", "-1.6"},
			{"tau1", "-0.5"},
			{"tau2", "2.9"},
			{"eta1", "0.0"},
			{"eta2", "0.0"},
			{"eta3", "0.0"},
			{"laB", "0.4"},
			{"laP", "0.8"},
		}
	}
	return nil
}
