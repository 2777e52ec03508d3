package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile    string
	Collection string
	Profile    string
	OnError    string
	SortIDs    bool
	Normalize  bool
	PruneDupes bool
	ListModels bool

	// Provider overrides
	TextProvider  string
	TextModel     string
	AudioProvider string
	AudioFormat   string
	OpenAISpeed   float64
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Profile:     "french",
		OnError:     "continue",
		OpenAISpeed: 0.9,
	}
}
