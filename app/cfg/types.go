package cfg

type Cfg struct {
	// Upstream configuration
	CreatorID string
	APIURL    string
	UserAgent string
	Timeout   int

	// Cache configuration
	CacheDir string
	MaxAge   int

	// Server configuration
	FeedsDir string
	Port     string

	// Application metadata
	Command  string
	NoCache  bool
	Timezone string
	Debug    bool
	Version  string
}
