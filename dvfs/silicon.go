package dvfs

// SiliconInfo exposes the characterization fuses of the chip.
type SiliconInfo interface {
	CPUSpeedoID() int
	SoCSpeedoID() int
	CPUProcessID() int
	CoreProcessID() int
	// CPUSpeedoMV and CoreSpeedoMV are the nominal levels for the bin.
	CPUSpeedoMV() int
	CoreSpeedoMV() int
	// CoreEDPLimitMV is the board core limit, 0 when unset.
	CoreEDPLimitMV() int
	// LinearAge is the chip age recorded in fuses, 0 when unknown.
	LinearAge() int
}

// Silicon is a fixed set of fuse values.
type Silicon struct {
	CPUSpeedo   int `mapstructure:"cpu_speedo_id" yaml:"cpu_speedo_id"`
	SoCSpeedo   int `mapstructure:"soc_speedo_id" yaml:"soc_speedo_id"`
	CPUProcess  int `mapstructure:"cpu_process_id" yaml:"cpu_process_id"`
	CoreProcess int `mapstructure:"core_process_id" yaml:"core_process_id"`
	CPUMV       int `mapstructure:"cpu_speedo_mv" yaml:"cpu_speedo_mv"`
	CoreMV      int `mapstructure:"core_speedo_mv" yaml:"core_speedo_mv"`
	CoreEDPMV   int `mapstructure:"core_edp_mv" yaml:"core_edp_mv"`
	Age         int `mapstructure:"linear_age" yaml:"linear_age"`
}

func (s Silicon) CPUSpeedoID() int    { return s.CPUSpeedo }
func (s Silicon) SoCSpeedoID() int    { return s.SoCSpeedo }
func (s Silicon) CPUProcessID() int   { return s.CPUProcess }
func (s Silicon) CoreProcessID() int  { return s.CoreProcess }
func (s Silicon) CPUSpeedoMV() int    { return s.CPUMV }
func (s Silicon) CoreSpeedoMV() int   { return s.CoreMV }
func (s Silicon) CoreEDPLimitMV() int { return s.CoreEDPMV }
func (s Silicon) LinearAge() int      { return s.Age }
