package auth

// HandlerKind selects the AuthHandler implementation
type HandlerKind string

const (
	// KindBuildIn is the username and password handler
	KindBuildIn HandlerKind = "BuildIn"
	// KindOAuth is reserved for a delegated provider handler
	KindOAuth HandlerKind = "OAuth"
)

// AuthConfig configures one handler instance
type AuthConfig struct {
	Kind        HandlerKind       `mapstructure:"kind" json:"kind" yaml:"kind"`
	Enabled     bool              `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	RequireZKP  bool              `mapstructure:"require_zkp" json:"require_zkp" yaml:"require_zkp"`
	Name        string            `mapstructure:"name" json:"name" yaml:"name"`
	Version     string            `mapstructure:"version" json:"version" yaml:"version"`
	Description string            `mapstructure:"description" json:"description" yaml:"description"`
	ExtraFields map[string]string `mapstructure:"extra_fields" json:"extra_fields" yaml:"extra_fields"`
}

// Field returns an extra field value
func (c AuthConfig) Field(key string) (string, bool) {
	if c.ExtraFields == nil {
		return "", false
	}
	v, ok := c.ExtraFields[key]
	return v, ok
}
