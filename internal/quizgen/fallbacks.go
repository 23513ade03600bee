package quizgen

import "slices"

// Fallbacks are the generic distractors used when a document offers too
// little similar material. Each list needs at least three entries; shorter
// lists are replaced by the defaults.
type Fallbacks struct {
	Definition  []string `mapstructure:"definition"`
	Composition []string `mapstructure:"composition"`
	Function    []string `mapstructure:"function"`
}

// DefaultFallbacks returns the built-in distractor lists.
func DefaultFallbacks() Fallbacks {
	return Fallbacks{
		Definition: []string{
			"is a programming language",
			"is a software framework",
			"is a database system",
			"is an operating system",
			"is a hardware component",
			"is a network protocol",
		},
		Composition: []string{
			"Data and information",
			"Hardware and software",
			"Multiple components",
			"Various elements",
			"Different modules",
			"Several parts",
		},
		Function: []string{
			"To store and manage data",
			"To process user input",
			"To display information",
			"To connect to networks",
			"To analyze statistics",
			"To generate reports",
		},
	}
}

func (f Fallbacks) withDefaults() Fallbacks {
	def := DefaultFallbacks()
	pick := func(list, fallback []string) []string {
		if len(list) < distractorCount {
			return fallback
		}
		return slices.Clone(list)
	}
	return Fallbacks{
		Definition:  pick(f.Definition, def.Definition),
		Composition: pick(f.Composition, def.Composition),
		Function:    pick(f.Function, def.Function),
	}
}
