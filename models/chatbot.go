package models

import "time"

// ChatbotConfigID is the fixed _id of the singleton chatbot document.
const ChatbotConfigID = "default"

type ChatbotTheme struct {
	PrimaryColor string `bson:"primary_color" json:"primary_color"`
	Position     string `bson:"position" json:"position"`
}

// ChatbotConfig configures the site chat widget
// Collection: chatbot_config (singleton)
type ChatbotConfig struct {
	ID             string       `bson:"_id" json:"-"`
	UpdatedAt      time.Time    `bson:"updated_at" json:"updated_at"`
	Enabled        bool         `bson:"enabled" json:"enabled"`
	Name           string       `bson:"name" json:"name"`
	WelcomeMessage string       `bson:"welcome_message" json:"welcome_message"`
	Placeholder    string       `bson:"placeholder" json:"placeholder"`
	SystemPrompt   string       `bson:"system_prompt" json:"system_prompt"`
	Theme          ChatbotTheme `bson:"theme" json:"theme"`
	QuickReplies   []string     `bson:"quick_replies" json:"quick_replies"`
}

// DefaultChatbotConfig is served until an admin saves a configuration.
func DefaultChatbotConfig() ChatbotConfig {
	return ChatbotConfig{
		ID:             ChatbotConfigID,
		Enabled:        false,
		Name:           "Assistant",
		WelcomeMessage: "Hi! How can we help?",
		Placeholder:    "Type your question...",
		Theme:          ChatbotTheme{PrimaryColor: "#2563eb", Position: "bottom-right"},
		QuickReplies:   []string{},
	}
}
