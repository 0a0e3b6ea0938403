package executor

import (
	"context"
	"sync"

	"github.com/temic137/formforge/internal/logger"
	"github.com/temic137/formforge/internal/models"
)

// Task is one independent unit of work for the dispatcher
type Task struct {
	ID      string
	Purpose string
	Request *models.CompletionRequest
}

// TaskResult carries exactly one of Result or Err for a dispatched task
type TaskResult struct {
	TaskID string
	Result *models.CompletionResult
	Err    error
}

// Dispatch runs independent tasks concurrently, each through its own
// fallback-executor invocation. One task's failure never cancels or blocks
// another's completion; every task gets an entry in the returned map.
func (e *Executor) Dispatch(ctx context.Context, tasks []Task) map[string]TaskResult {
	results := make(map[string]TaskResult, len(tasks))

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, task := range tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()

			result, err := e.Execute(ctx, t.Purpose, t.Request)
			if err != nil {
				logger.Warning("Task %s (purpose %s) failed: %v", t.ID, t.Purpose, err)
			}

			mu.Lock()
			results[t.ID] = TaskResult{TaskID: t.ID, Result: result, Err: err}
			mu.Unlock()
		}(task)
	}

	wg.Wait()
	return results
}
