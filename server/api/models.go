package api

// note that these are *not* the DAO models; those are distinct and closer to
// the DB format they are in. Rather these are the models that are received from
// and sent to the client.

type InfoModel struct {
	Version struct {
		Server    string `json:"server"`
		RuleCheck string `json:"rulecheck"`
	} `json:"version"`
}

type GrammarModel struct {
	URI       string   `json:"uri"`
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	Rules     []string `json:"rules"`
	Recursive []int    `json:"recursive"`
	Created   string   `json:"created,omitempty"`
	Modified  string   `json:"modified,omitempty"`
}

type GrammarCreateRequest struct {
	Name      string   `json:"name"`
	Rules     []string `json:"rules"`
	Overrides []string `json:"overrides,omitempty"`
	Loop      bool     `json:"loop,omitempty"`
}

type RuleModel struct {
	URI        string `json:"uri"`
	Grammar    string `json:"grammar"`
	ID         int    `json:"id"`
	Definition string `json:"definition"`
	Recursive  bool   `json:"recursive"`
}

type RuleUpdateRequest struct {
	Definition string `json:"definition"`
}

type ValidationRequest struct {
	Messages []string `json:"messages"`
	Start    int      `json:"start"`
	Workers  int      `json:"workers,omitempty"`
}

type ValidationModel struct {
	Total   int                     `json:"total"`
	Valid   int                     `json:"valid"`
	Results []ValidationResultModel `json:"results"`
}

type ValidationResultModel struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
	Valid   bool   `json:"valid"`
	Longest int    `json:"longest"`
}

type LanguageModel struct {
	Grammar  string   `json:"grammar"`
	Rule     int      `json:"rule"`
	Messages []string `json:"messages"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	Expires string `json:"expires"`
}
