package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/jainqa/internal/ai"
	"github.com/xxxsen/jainqa/internal/session"
)

const (
	DefaultMaxIterations = 8

	invalidFormatObservation = "आपका उत्तर प्रारूप में नहीं था। या तो 'Action:' और 'Action Input:' दें, या 'Final Answer:' से अंतिम उत्तर दें।"
	exhaustedAnswer          = "क्षमा करें, मैं निर्धारित चरणों में उत्तर नहीं खोज सका। कृपया प्रश्न को सरल करके दोबारा पूछें।"
)

// Executor drives the Thinking -> Acting -> Observing loop until the
// model produces a final answer. Malformed model output is fed back as
// an observation and retried; the loop is bounded by maxIterations so
// a confused model cannot spin forever.
type Executor struct {
	gen           ai.IGenerator
	tools         []Tool
	history       *session.History
	maxIterations int
}

func NewExecutor(gen ai.IGenerator, tools []Tool, history *session.History, maxIterations int) *Executor {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Executor{
		gen:           gen,
		tools:         tools,
		history:       history,
		maxIterations: maxIterations,
	}
}

// Run answers the question and records the completed turn in the
// session history. Only provider failures return an error; reasoning
// dead-ends resolve to a fixed apologetic answer.
func (e *Executor) Run(ctx context.Context, question string) (string, error) {
	logger := logutil.GetLogger(ctx)
	var scratchpad strings.Builder
	for i := 0; i < e.maxIterations; i++ {
		prompt := buildPrompt(e.tools, e.history.Turns(), question, scratchpad.String())
		output, err := e.gen.Generate(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("agent generate: %w", err)
		}
		output = truncateAtObservation(output)

		if answer, ok := parseFinalAnswer(output); ok {
			logger.Debug("agent concluded", zap.Int("iterations", i+1))
			e.history.Append(question, answer)
			return answer, nil
		}

		action, input, ok := parseAction(output)
		if !ok {
			logger.Debug("agent output malformed, retrying", zap.Int("iteration", i+1))
			writeStep(&scratchpad, output, invalidFormatObservation)
			continue
		}

		observation := e.invokeTool(ctx, action, input)
		writeStep(&scratchpad, output, observation)
	}
	logger.Warn("agent iteration limit reached", zap.Int("max_iterations", e.maxIterations))
	e.history.Append(question, exhaustedAnswer)
	return exhaustedAnswer, nil
}

func (e *Executor) invokeTool(ctx context.Context, action, input string) string {
	logger := logutil.GetLogger(ctx)
	for _, tool := range e.tools {
		if !strings.EqualFold(tool.Name, action) {
			continue
		}
		logger.Debug("agent invoking tool", zap.String("tool", tool.Name))
		result, err := tool.Run(ctx, input)
		if err != nil {
			logger.Warn("tool failed", zap.String("tool", tool.Name), zap.Error(err))
			return "उपकरण विफल रहा: " + err.Error()
		}
		return result
	}
	names := make([]string, 0, len(e.tools))
	for _, tool := range e.tools {
		names = append(names, tool.Name)
	}
	return fmt.Sprintf("'%s' नाम का कोई उपकरण नहीं है। उपलब्ध उपकरण: [%s]", action, strings.Join(names, ", "))
}

func writeStep(scratchpad *strings.Builder, output, observation string) {
	scratchpad.WriteString(strings.TrimSpace(output))
	scratchpad.WriteString("\nObservation: ")
	scratchpad.WriteString(observation)
	scratchpad.WriteString("\nThought: ")
}

// truncateAtObservation drops anything the model hallucinated past its
// own "Observation:" marker; observations come from tools, not the model.
func truncateAtObservation(output string) string {
	if idx := strings.Index(output, "\nObservation:"); idx >= 0 {
		return output[:idx]
	}
	return output
}

func parseFinalAnswer(output string) (string, bool) {
	idx := strings.Index(output, "Final Answer:")
	if idx < 0 {
		return "", false
	}
	answer := strings.TrimSpace(output[idx+len("Final Answer:"):])
	if answer == "" {
		return "", false
	}
	return answer, true
}

func parseAction(output string) (action string, input string, ok bool) {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if value, found := strings.CutPrefix(trimmed, "Action:"); found {
			action = cleanActionValue(value)
			continue
		}
		if value, found := strings.CutPrefix(trimmed, "Action Input:"); found {
			input = cleanActionValue(value)
		}
	}
	if action == "" {
		return "", "", false
	}
	return action, input, true
}

func cleanActionValue(value string) string {
	value = strings.TrimSpace(value)
	value = strings.Trim(value, "`\"'")
	return strings.TrimSpace(value)
}
