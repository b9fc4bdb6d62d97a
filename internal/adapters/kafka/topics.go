package kafka

// Topic definitions for pipeline completion events
const (
	// Weekly analytics events
	TopicWeeklyCompleted = "analytics.weekly.completed"

	// Direction predictor events
	TopicPredictionCompleted = "prediction.completed"

	// Lexicon cache events
	TopicLexiconRefreshed = "lexicon.refreshed"
)
