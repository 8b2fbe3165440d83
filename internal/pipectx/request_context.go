// Package pipectx tracks one extraction request's lifecycle: stage timing,
// sub-step detail, and token usage, the way the teacher's RequestContext
// tracked receipt-analysis steps.
package pipectx

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// RequestContext tracks one pipeline run's stage timings and token usage.
type RequestContext struct {
	RequestID           string
	StartTime           time.Time
	Steps               []StepLog
	TotalTokens         TokenUsage
	CurrentStep         string
	CurrentStepStart    time.Time
	CurrentSubSteps     []SubStepLog
	CurrentSubStep      string
	CurrentSubStepStart time.Time
}

// StepLog records one pipeline stage's outcome.
type StepLog struct {
	Name      string
	StartTime time.Time
	Duration  time.Duration
	Status    string // "success", "failed", "skipped"
	Tokens    *TokenUsage
	Error     string
	SubSteps  []SubStepLog
}

// SubStepLog records a detailed sub-operation within a stage.
type SubStepLog struct {
	Name      string
	StartTime time.Time
	Duration  time.Duration
	Details   string
}

// TokenUsage tracks model-call token consumption for one stage or the whole
// request.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add accumulates another usage sample into this one.
func (t *TokenUsage) Add(other TokenUsage) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.TotalTokens += other.TotalTokens
}

// New creates a request-tracking context with a fresh request ID.
func New() *RequestContext {
	now := time.Now()
	rc := &RequestContext{
		RequestID: uuid.New().String(),
		StartTime: now,
	}
	log.Printf("[%s] 🚀 pipeline started at %s", rc.RequestID, now.Format("15:04:05"))
	return rc
}

// StartStage begins tracking a pipeline stage.
func (rc *RequestContext) StartStage(name string) {
	rc.CurrentStep = name
	rc.CurrentStepStart = time.Now()
	log.Printf("[%s] ┌── %s", rc.RequestID, name)
}

// EndStage completes the current stage and records its outcome.
func (rc *RequestContext) EndStage(status string, tokens *TokenUsage, err error) {
	duration := time.Since(rc.CurrentStepStart)

	step := StepLog{
		Name:      rc.CurrentStep,
		StartTime: rc.CurrentStepStart,
		Duration:  duration,
		Status:    status,
		Tokens:    tokens,
		SubSteps:  rc.CurrentSubSteps,
	}

	if err != nil {
		step.Error = err.Error()
		log.Printf("[%s] ❌ %s failed after %s: %v", rc.RequestID, rc.CurrentStep, duration, err)
	} else {
		msg := fmt.Sprintf("[%s] └── ✅ %s in %s", rc.RequestID, rc.CurrentStep, duration)
		if tokens != nil {
			rc.TotalTokens.Add(*tokens)
			msg += fmt.Sprintf(" | tokens: %d in + %d out = %d", tokens.InputTokens, tokens.OutputTokens, tokens.TotalTokens)
		}
		log.Printf(msg)
	}

	rc.Steps = append(rc.Steps, step)
	rc.CurrentStep = ""
	rc.CurrentSubSteps = nil
}

// StartSubStep begins a detailed sub-operation inside the current stage.
func (rc *RequestContext) StartSubStep(name string) {
	rc.CurrentSubStep = name
	rc.CurrentSubStepStart = time.Now()
	log.Printf("[%s]    ├─ %s...", rc.RequestID, name)
}

// EndSubStep completes the current sub-step.
func (rc *RequestContext) EndSubStep(details string) {
	if rc.CurrentSubStep == "" {
		return
	}
	duration := time.Since(rc.CurrentSubStepStart)
	rc.CurrentSubSteps = append(rc.CurrentSubSteps, SubStepLog{
		Name:      rc.CurrentSubStep,
		StartTime: rc.CurrentSubStepStart,
		Duration:  duration,
		Details:   details,
	})
	suffix := ""
	if details != "" {
		suffix = " | " + details
	}
	log.Printf("[%s]    └─ ✅ %s%s", rc.RequestID, duration, suffix)
	rc.CurrentSubStep = ""
}

// LogInfo logs an info-level message prefixed with the request ID.
func (rc *RequestContext) LogInfo(format string, args ...interface{}) {
	log.Printf("[%s] ℹ️  %s", rc.RequestID, fmt.Sprintf(format, args...))
}

// LogWarning logs a warning-level message prefixed with the request ID.
func (rc *RequestContext) LogWarning(format string, args ...interface{}) {
	log.Printf("[%s] ⚠️  %s", rc.RequestID, fmt.Sprintf(format, args...))
}

// LogError logs an error-level message prefixed with the request ID.
func (rc *RequestContext) LogError(format string, args ...interface{}) {
	log.Printf("[%s] ❌ %s", rc.RequestID, fmt.Sprintf(format, args...))
}

// Summary returns the final per-request report (stage breakdown + tokens).
func (rc *RequestContext) Summary() map[string]interface{} {
	total := time.Since(rc.StartTime)

	breakdown := make(map[string]int64, len(rc.Steps))
	for _, s := range rc.Steps {
		breakdown[s.Name] = s.Duration.Milliseconds()
	}

	return map[string]interface{}{
		"request_id":         rc.RequestID,
		"total_duration_ms":  total.Milliseconds(),
		"stage_breakdown_ms": breakdown,
		"total_stages":       len(rc.Steps),
		"total_tokens":       rc.TotalTokens.TotalTokens,
	}
}
