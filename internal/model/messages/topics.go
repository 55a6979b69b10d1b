package messages

// Broker topics. The trailing segment is the analysis id or agent name.
const (
	TopicAnalysisCompleted = "farm/analysis/"
	TopicAgentStep         = "farm/agent/"
)
