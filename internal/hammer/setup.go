package hammer

import (
	"fmt"
	"strconv"
)

// Run selects the simulation campaign, which fixes the input form factors.
type Run string

const (
	Run1 Run = "run1"
	Run2 Run = "run2"
)

// ParseRun validates a run name.
func ParseRun(s string) (Run, error) {
	switch r := Run(s); r {
	case Run1, Run2:
		return r, nil
	}
	return "", fmt.Errorf("unknown run %q (want run1 or run2)", s)
}

// NominalScheme is the name of the target form-factor scheme.
const NominalScheme = "OutputFF"

// VariationScheme returns the name of the i-th variation scheme, counting from 1.
func VariationScheme(i int) string {
	return NominalScheme + "Var" + strconv.Itoa(i)
}

// Scheme maps each participating decay to a form-factor name.
type Scheme struct {
	Name string            `json:"name"`
	FF   map[string]string `json:"ff"`
}

// WCSpecialization pins Wilson coefficients of a process in the weights.
type WCSpecialization struct {
	Process      string             `json:"process"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// RunSetup is everything the engine needs before the first event.
type RunSetup struct {
	Units   string            `json:"units"`
	Decays  []string          `json:"decays"`
	InputFF map[string]string `json:"inputFF"`

	// Schemes[0] is the nominal scheme, followed by one scheme per variation slot.
	Schemes []Scheme `json:"schemes"`

	// Options are applied in order.
	Options []string `json:"options"`

	// SpecializedWC is applied after the run is initialised.
	SpecializedWC []WCSpecialization `json:"specializedWC"`
}

// Nominal returns the nominal scheme name.
func (s RunSetup) Nominal() string {
	if len(s.Schemes) == 0 {
		return NominalScheme
	}
	return s.Schemes[0].Name
}

// Variations returns the variation scheme names in slot order.
func (s RunSetup) Variations() []string {
	if len(s.Schemes) < 2 {
		return nil
	}
	names := make([]string, 0, len(s.Schemes)-1)
	for _, sc := range s.Schemes[1:] {
		names = append(names, sc.Name)
	}
	return names
}

var standardModelOnly = map[string]float64{
	"SM": 1,
	"S_qLlL": 0, "S_qRlL": 0, "V_qLlL": 0, "V_qRlL": 0, "T_qLlL": 0,
	"S_qLlR": 0, "S_qRlR": 0, "V_qLlR": 0, "V_qRlR": 0, "T_qRlR": 0,
}

// NewRunSetup builds the scheme configuration for a campaign: input form
// factors per run, the nominal output scheme with per-channel defaults, and
// one variation scheme per slot in which each channel with at least that
// many variations applies its shift on top of its defaults.
func NewRunSetup(run Run, units string, tables Tables) (RunSetup, error) {
	if _, err := ParseRun(string(run)); err != nil {
		return RunSetup{}, err
	}
	slots := tables.Slots
	if slots <= 0 {
		slots = DefaultSlots
	}

	s := RunSetup{
		Units:   units,
		InputFF: make(map[string]string),
	}

	for _, c := range Channels {
		s.Decays = append(s.Decays, c.IncludedDecays()...)
		if ff, ok := c.InputFF(run); ok {
			s.InputFF[c.Decay()] = ff
		}
	}
	if run == Run2 {
		s.Options = append(s.Options,
			"BtoDCLN_1: {RhoSq: 1.131, Delta: 0.38, G1: 1.035}",
			"BtoD*CLN_1: {RhoSq: 1.122, F1: 0.908, R1: 1.270, R2: 0.852, R0: 1.15}",
		)
	}

	nominal := Scheme{Name: NominalScheme, FF: make(map[string]string)}
	for _, c := range Channels {
		nominal.FF[c.Decay()] = c.OutputFF()
		s.Options = append(s.Options, render(c.Descriptor()+c.OutputFF(), c.Defaults())...)
	}
	s.Schemes = append(s.Schemes, nominal)

	for i := 1; i <= slots; i++ {
		sc := Scheme{Name: VariationScheme(i), FF: make(map[string]string)}
		for _, c := range Channels {
			vars := tables.For(c)
			if i > len(vars) {
				continue
			}
			ff := c.OutputFF() + "_" + strconv.Itoa(i)
			full := c.Descriptor() + ff
			sc.FF[c.Decay()] = ff
			s.Options = append(s.Options, render(full, c.Defaults())...)
			s.Options = append(s.Options, render(full, vars[i-1])...)
		}
		s.Schemes = append(s.Schemes, sc)
	}

	s.Options = append(s.Options, "ProcessCalc: {CheckForNaNs: true}")
	for _, process := range []string{"BtoCTauNu", "BtoCMuNu"} {
		s.SpecializedWC = append(s.SpecializedWC, WCSpecialization{
			Process:      process,
			Coefficients: standardModelOnly,
		})
	}
	return s, nil
}

func render(scheme string, opts Options) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.For(scheme))
	}
	return out
}
