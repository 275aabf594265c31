package domain

// ToolCall is a resolved request to invoke one registry tool.
// Args are the decoded arguments, post-fallback.
type ToolCall struct {
	Name string         `json:"name" mapstructure:"tool"`
	Args map[string]any `json:"args,omitempty" mapstructure:"args"`
}

// ToolResult is one evidence entry produced by a tool invocation.
// Result is always a string payload; tools encode errors inside the payload
// (e.g. {"error": "..."}) instead of failing the run.
type ToolResult struct {
	Tool   string `json:"tool"`
	Step   string `json:"step,omitempty"`
	Result string `json:"result"`
}

// ToolSpec describes a registry entry for prompting and schema validation.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}
