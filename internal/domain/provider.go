package domain

// ServiceProvider is an external contractor a request can be assigned to.
type ServiceProvider struct {
	ProviderID string `json:"id" dynamodbav:"provider_id"`
	Name       string `json:"name" dynamodbav:"name"`
	Category   string `json:"category" dynamodbav:"category"`
	Avatar     string `json:"avatar,omitempty" dynamodbav:"avatar,omitempty"`
}

type ProviderRef struct {
	ID   string `json:"id" dynamodbav:"id"`
	Name string `json:"name" dynamodbav:"name"`
}
