package domain

// MetricsSnapshot is a copy-on-read view of the pipeline's rolling state.
// Slices are owned by the snapshot; mutating the live tracker after the
// snapshot was taken never changes a value here.
type MetricsSnapshot struct {
	TotalQueries       int64     `json:"total_queries"`
	SuccessfulQueries  int64     `json:"successful_queries"`
	FailedQueries      int64     `json:"failed_queries"`
	SuccessRate        float64   `json:"success_rate"`
	AvgResponseTime    float64   `json:"avg_response_time"`
	AvgRelevance       float64   `json:"avg_relevance_score"`
	DocumentsProcessed int64     `json:"documents_processed"`
	ChunksIndexed      int64     `json:"chunks_indexed"`
	CurrentTemperature float64   `json:"current_temperature"`
	TemperatureHistory []float64 `json:"temperature_history,omitempty"`
	ResponseTimes      []float64 `json:"response_times,omitempty"`
	RelevanceScores    []float64 `json:"relevance_scores,omitempty"`
}
