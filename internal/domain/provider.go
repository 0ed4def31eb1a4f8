package domain

// ProviderType identifies the wire protocol an SMS provider speaks.
type ProviderType string

const (
	ProviderBoomcast ProviderType = "boomcast" // Boomcast (BD), HTTP GET, plain-text response
	ProviderMiMSMS   ProviderType = "mimsms"   // MiMSMS (BD), HTTP POST, JSON response
	ProviderAWSSNS   ProviderType = "aws_sns"  // Amazon SNS publish
	ProviderGeneric  ProviderType = "generic"  // Operator-configured generic HTTP gateway
)

// BD reports whether the provider type is a Bangladesh-local gateway.
// Destinations with the 880 country code are routed to these preferentially.
func (t ProviderType) BD() bool {
	return t == ProviderBoomcast || t == ProviderMiMSMS
}

// ProviderState enables or disables a provider for routing.
type ProviderState string

const (
	ProviderEnabled  ProviderState = "enabled"
	ProviderDisabled ProviderState = "disabled"
)

// Credentials is the opaque per-provider credential bag. Which fields are
// meaningful depends on the provider type.
type Credentials struct {
	APIURL    string `json:"api_url"`
	Username  string `json:"api_username"`
	Password  string `json:"api_password"`
	APIKey    string `json:"api_key"`
	AWSRegion string `json:"aws_region"`
	AWSAccess string `json:"aws_access_key"`
	AWSSecret string `json:"aws_secret_key"`
}

// Provider is a configured SMS gateway. Providers are created and edited by
// configuration; the engine treats them as read-only.
type Provider struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Type        ProviderType  `json:"type"`
	State       ProviderState `json:"state"`
	Priority    int           `json:"priority"` // Lower = preferred
	Credentials Credentials   `json:"credentials"`
	SenderID    string        `json:"sender_id"` // Masking / approved sender name
	Unicode     bool          `json:"unicode_supported"`
	DailyLimit  int           `json:"daily_limit"` // 0 = unlimited
}

// Enabled reports whether the provider participates in routing.
func (p Provider) Enabled() bool {
	return p.State == ProviderEnabled
}
