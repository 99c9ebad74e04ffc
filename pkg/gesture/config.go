package gesture

import "time"

// Config tunes one gesture machine. Rates are in the sensor's native unit
// (orientation delta per sample).
type Config struct {
	// Threshold is the rate magnitude that moves the machine to its next phase.
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`
	// Timeout bounds a gesture measured from its first phase transition.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Cooldown is the minimum gap between two registered completions.
	Cooldown time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
	// DoubleWindow pairs two nods into a double nod. Zero disables pairing.
	DoubleWindow time.Duration `mapstructure:"double_window" yaml:"double_window"`
	// SettleRate lets a still sample in the terminal phase finish the gesture.
	// Zero requires an explicit Finish.
	SettleRate float64 `mapstructure:"settle_rate" yaml:"settle_rate"`
}

// DefaultNodConfig returns the tuned defaults for the nod machine.
func DefaultNodConfig() Config {
	return Config{
		Threshold:    1.8,
		Timeout:      800 * time.Millisecond,
		Cooldown:     600 * time.Millisecond,
		DoubleWindow: 600 * time.Millisecond,
		SettleRate:   0.5,
	}
}

// DefaultShakeConfig returns the tuned defaults for the shake machine.
func DefaultShakeConfig() Config {
	return Config{
		Threshold:  2.0,
		Timeout:    800 * time.Millisecond,
		Cooldown:   700 * time.Millisecond,
		SettleRate: 0.5,
	}
}
