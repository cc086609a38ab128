package entities

// ChoiceResult is one tallied choice. Choice carries the display form
// (candidate name when the id still resolves), RawChoice the decrypted
// plaintext the count is keyed by.
type ChoiceResult struct {
	Choice     string
	RawChoice  string
	Count      int
	Percentage float64
}

// TallyResult is the aggregation of all decryptable ballots of one
// concluded election. Winners lists the raw choices holding the maximum
// count; ties produce several winners and a zero margin.
type TallyResult struct {
	ElectionID       string
	TotalBallots     int
	DecryptedVotes   int
	CorruptedBallots int
	TotalEligible    int
	TurnoutPercent   float64
	Results          []ChoiceResult
	Winners          []string
	WinnersDisplay   []string
	MarginVotes      int
	MarginPercent    float64
}
