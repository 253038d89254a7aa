package domain

// Prediction is the successful outcome of one request.
type Prediction struct {
	ValueEUR  float64 `json:"predicted_value_eur"`
	Position  string  `json:"position"`
	ModelPath string  `json:"model_path"`
}

// Diagnostics describes the storage layout the service reads from.
type Diagnostics struct {
	ModelDirectory       string   `json:"model_directory"`
	ModelDirectoryExists bool     `json:"model_directory_exists"`
	AvailableModels      []string `json:"available_models"`
	LabelsFile           string   `json:"labels_file"`
	LabelsExists         bool     `json:"labels_exists"`
	Error                string   `json:"error,omitempty"`
}
