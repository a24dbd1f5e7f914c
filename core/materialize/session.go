package materialize

// Session is the materialized view of a replayed chat session. Request
// indices are contiguous 0..N-1 with no gaps; positions the log never
// populated materialize as empty requests with Present=false.
type Session struct {
	Requests []Request
	Warnings []string
}

// Request is one materialized request node. Fields beyond ResponseParts
// and Result back the window/correlation/manifest commands.
type Request struct {
	Index         int
	Present       bool
	RequestID     string
	Timestamp     int64 // milliseconds since epoch, 0 when unrecorded
	ModelID       string
	MessageText   string
	ResponseParts []ResponsePart
	Result        Result
	ContentRefs   []string
	Raw           map[string]any
}

type ResponsePart struct {
	Kind              string
	ContentValue      string
	ToolID            string
	ToolCallID        string
	IsComplete        bool
	InvocationMessage string
	TerminalInput     string
}

// Result mirrors the request's stored result substructure. Present with a
// nil Summary is the phantom-reboot signal; Ambiguous marks a result whose
// shape could not be interpreted at all.
type Result struct {
	Present   bool
	Ambiguous bool
	Summary   *Summary
}

type Summary struct {
	Text string
}

func buildSession(root any, warnings []string) *Session {
	session := &Session{Warnings: warnings}
	rootMap, ok := root.(map[string]any)
	if !ok {
		return session
	}
	rawRequests, ok := rootMap["requests"].([]any)
	if !ok {
		return session
	}
	session.Requests = make([]Request, 0, len(rawRequests))
	for index, raw := range rawRequests {
		entry, ok := raw.(map[string]any)
		if !ok {
			session.Requests = append(session.Requests, Request{Index: index})
			continue
		}
		session.Requests = append(session.Requests, buildRequest(index, entry))
	}
	return session
}

func buildRequest(index int, raw map[string]any) Request {
	request := Request{
		Index:     index,
		Present:   true,
		RequestID: firstString(raw, "requestId", "id"),
		Timestamp: firstInt64(raw, "timestamp", "requestStartTime"),
		ModelID:   asString(raw["modelId"]),
		Raw:       raw,
	}

	switch message := raw["message"].(type) {
	case map[string]any:
		request.MessageText = asString(message["text"])
	case string:
		request.MessageText = message
	}

	if refs, ok := raw["contentReferences"].([]any); ok {
		for _, ref := range refs {
			refMap, ok := ref.(map[string]any)
			if !ok {
				continue
			}
			inner, ok := refMap["reference"].(map[string]any)
			if !ok {
				continue
			}
			if fsPath := asString(inner["fsPath"]); fsPath != "" {
				request.ContentRefs = append(request.ContentRefs, fsPath)
			}
		}
	}

	if parts, ok := raw["response"].([]any); ok {
		for _, rawPart := range parts {
			partMap, ok := rawPart.(map[string]any)
			if !ok {
				continue
			}
			request.ResponseParts = append(request.ResponseParts, buildResponsePart(partMap))
		}
	}

	request.Result = buildResult(raw)
	return request
}

func buildResponsePart(raw map[string]any) ResponsePart {
	part := ResponsePart{
		Kind:       asString(raw["kind"]),
		ToolID:     asString(raw["toolId"]),
		ToolCallID: asString(raw["toolCallId"]),
	}
	if complete, ok := raw["isComplete"].(bool); ok {
		part.IsComplete = complete
	}
	switch content := raw["content"].(type) {
	case map[string]any:
		part.ContentValue = asString(content["value"])
	case string:
		part.ContentValue = content
	}
	switch message := raw["invocationMessage"].(type) {
	case map[string]any:
		part.InvocationMessage = asString(message["value"])
	case string:
		part.InvocationMessage = message
	}
	if details, ok := raw["resultDetails"].(map[string]any); ok {
		part.TerminalInput = asString(details["input"])
	}
	return part
}

func buildResult(raw map[string]any) Result {
	rawResult, exists := raw["result"]
	if !exists || rawResult == nil {
		return Result{}
	}
	resultMap, ok := rawResult.(map[string]any)
	if !ok {
		return Result{Present: true, Ambiguous: true}
	}
	rawMetadata, exists := resultMap["metadata"]
	if !exists || rawMetadata == nil {
		return Result{Present: true}
	}
	metadata, ok := rawMetadata.(map[string]any)
	if !ok {
		return Result{Present: true, Ambiguous: true}
	}
	rawSummary, exists := metadata["summary"]
	if !exists || rawSummary == nil {
		return Result{Present: true}
	}
	summary, ok := rawSummary.(map[string]any)
	if !ok {
		return Result{Present: true, Ambiguous: true}
	}
	// A summary with a missing or empty text still fingerprints: hash of
	// the empty string, never a crash.
	return Result{Present: true, Summary: &Summary{Text: asString(summary["text"])}}
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := asString(raw[key]); value != "" {
			return value
		}
	}
	return ""
}

func firstInt64(raw map[string]any, keys ...string) int64 {
	for _, key := range keys {
		if number, ok := raw[key].(float64); ok {
			return int64(number)
		}
	}
	return 0
}

func asString(value any) string {
	text, _ := value.(string)
	return text
}
