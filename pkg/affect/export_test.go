package affect

// FERScoresForTest exposes ferScores to the external test package.
var FERScoresForTest = ferScores
