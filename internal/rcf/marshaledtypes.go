package rcf

type topLevelManifest struct {
	Format string   `toml:"format"`
	Type   string   `toml:"type"`
	Files  []string `toml:"files"`
}

// topLevelJob is the top-level structure containing all keys in a complete RCF
// 'JOB' type file.
type topLevelJob struct {
	Format   string      `toml:"format"`
	Type     string      `toml:"type"`
	Name     string      `toml:"name"`
	Grammar  jobGrammar  `toml:"grammar"`
	Messages jobMessages `toml:"messages"`
	Run      jobRun      `toml:"run"`
}

type jobGrammar struct {
	File      string   `toml:"file"`
	Rules     []string `toml:"rules"`
	Start     int      `toml:"start"`
	Loop      bool     `toml:"loop"`
	Overrides []string `toml:"overrides"`
	Strict    bool     `toml:"strict"`
	Normalize bool     `toml:"normalize"`
}

type jobMessages struct {
	File string   `toml:"file"`
	List []string `toml:"list"`
}

type jobRun struct {
	Workers int `toml:"workers"`
}
