package model

import "time"

// User is a registered account
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	LastLogin    time.Time `json:"last_login" bson:"last_login"`
}

// HistoryRecord is a persisted analysis owned by a user
type HistoryRecord struct {
	ID               string          `json:"id" bson:"_id"`
	UserID           string          `json:"user_id" bson:"user_id"`
	Timestamp        time.Time       `json:"timestamp" bson:"timestamp"`
	ArticleText      string          `json:"article_text" bson:"article_text"`
	SourceType       SourceType      `json:"source_type" bson:"source_type"`
	SourceURL        string          `json:"source_url,omitempty" bson:"source_url,omitempty"`
	CredibilityScore float64         `json:"credibility_score" bson:"credibility_score"`
	Classification   Rating          `json:"classification" bson:"classification"`
	Summary          string          `json:"summary" bson:"summary"`
	BiasSentiment    SentimentResult `json:"bias_sentiment" bson:"bias_sentiment"`
	Analysis         *AnalysisResult `json:"analysis,omitempty" bson:"analysis,omitempty"`
}

// NewHistoryRecord builds the persisted form of an analysis
func NewHistoryRecord(userID string, r *AnalysisResult) HistoryRecord {
	return HistoryRecord{
		ID:               r.ID,
		UserID:           userID,
		Timestamp:        r.CreatedAt,
		ArticleText:      r.Article.Text,
		SourceType:       r.Article.SourceType,
		SourceURL:        r.Article.SourceURL,
		CredibilityScore: r.Score.Value,
		Classification:   r.Score.Rating,
		Summary:          r.Summary.Text,
		BiasSentiment:    r.Sentiment,
		Analysis:         r,
	}
}
