package problem

// Difficulty wildcard: "mixed" disables difficulty filtering.
const DifficultyMixed = "mixed"

// Problem is a coding problem snapshot shared by both players of a battle.
type Problem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StarterCode string     `json:"starter_code"`
	Difficulty  string     `json:"difficulty"`
	TestCases   []TestCase `json:"test_cases"`
}

// TestCase pairs a program input with its expected output.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}
