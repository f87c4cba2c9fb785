package constants

// Messaging service constants
const (
	// DefaultGroupMeAPIURL is the base URL of the GroupMe v3 REST API
	DefaultGroupMeAPIURL = "https://api.groupme.com/v3"

	// MaxPageSize is the most records a single message page request may ask for
	MaxPageSize = 100

	// GroupListPageSize is how many groups are requested from the group listing
	GroupListPageSize = 100

	// TokenHelpURL is where users obtain a developer access token
	TokenHelpURL = "https://dev.groupme.com/"
)

// Source names
const (
	SourceGroupMe = "groupme"
	SourceDiscord = "discord"
)

// Export constants
const (
	// DefaultOutputPath is where the statistics table is written when nothing else is configured
	DefaultOutputPath = "users.csv"
)

// ExportColumns is the fixed column order of the statistics table
var ExportColumns = []string{"name", "messages_sent", "likes_given", "self_likes", "likes_received", "words_sent"}
