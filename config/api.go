package config

// APIConfig configures the HTTP API served by `drivesim serve`. When Token
// is set, /api requests must carry it as a bearer token.
type APIConfig struct {
	Addr  string `json:"addr"`
	Token string `json:"token"`
}

func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
