package plugins

import (
	"context"
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/actions"
	"github.com/bugcenter/helpscot/plugin"
	"github.com/bugcenter/helpscot/sandbox"
	"github.com/bugcenter/helpscot/schedule"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// RunnerPluginName holds identifying name for the runner plugin
	RunnerPluginName = "runner"

	maxOutputLength         = 1900
	runtimesRefreshInterval = 24 * time.Hour
)

// Runner holds the plugin data for the runner plugin
type Runner struct {
	*helpscot.Plugin

	executor sandbox.Executor

	mu       sync.RWMutex
	runtimes []sandbox.Runtime
}

// NewRunner creates a new instance of the runner plugin. It runs code sent with /run <language> <code>
// on executor and answers with its output
func NewRunner(executor sandbox.Executor) (p *helpscot.Plugin) {
	r := new(Runner)
	r.executor = executor

	r.Plugin = plugin.New(RunnerPluginName).
		WithCommand(actions.NewCommand("run").
			WithUsage("/run <language> <code>").
			WithDescription("Run code and show its output").
			WithAnswerer(r.run).
			Build()).
		WithScheduledAction(actions.NewScheduledAction().
			WithSchedule(schedule.Every(runtimesRefreshInterval)).
			WithDescription("Refresh the languages code can be run in").
			WithAction(func() {
				ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
				defer cancel()

				if _, err := r.refreshRuntimes(ctx); err != nil {
					r.Logger.Printf("Unable to refresh runtimes: %v\n", err)
				}
			}).
			Build()).
		Build()

	return r.Plugin
}

// refreshRuntimes loads the runtimes supported by the executor
func (r *Runner) refreshRuntimes(ctx context.Context) (runtimes []sandbox.Runtime, err error) {
	runtimes, err = r.executor.Runtimes(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.runtimes = runtimes
	return runtimes, nil
}

// getRuntimes returns the loaded runtimes, loading them on first use
func (r *Runner) getRuntimes(ctx context.Context) (runtimes []sandbox.Runtime, err error) {
	r.mu.RLock()
	runtimes = r.runtimes
	r.mu.RUnlock()

	if runtimes != nil {
		return runtimes, nil
	}

	return r.refreshRuntimes(ctx)
}

func (r *Runner) run(m *helpscot.IncomingMessage) *helpscot.Answer {
	language, code := splitLanguage(m.NormalizedText)
	code = stripCodeFence(code)
	if language == "" || code == "" {
		return &helpscot.Answer{Text: "Try `/run <language> <code>`"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	runtimes, err := r.getRuntimes(ctx)
	if err != nil {
		r.Logger.Printf("Unable to load runtimes: %v\n", err)
		return &helpscot.Answer{Text: "Code execution is unavailable right now, try again later"}
	}

	rt, ok := sandbox.Find(runtimes, language)
	if !ok {
		return &helpscot.Answer{Text: fmt.Sprintf("Language `%s` isn't supported. Supported languages are %s", language, formatLanguages(runtimes))}
	}

	run, err := r.executor.Execute(ctx, sandbox.Request{Language: rt.Language, Version: rt.Version, Files: []sandbox.File{{Content: code}}})
	if err != nil {
		r.Logger.Printf("Unable to run [%s] code for [%s]: %v\n", rt.Language, m.User, err)
		return &helpscot.Answer{Text: fmt.Sprintf("Unable to run the code: %v", err)}
	}

	output := run.Output
	if strings.TrimSpace(output) == "" {
		output = "(no output)"
	}

	status := "killed"
	if run.Code != nil {
		status = fmt.Sprintf("exit code `%d`", *run.Code)
	}
	if run.Signal != "" {
		status = fmt.Sprintf("signal `%s`", run.Signal)
	}

	return &helpscot.Answer{Text: fmt.Sprintf("<@%s> ran `%s %s` code, %s:\n```\n%s\n```", m.User, rt.Language, rt.Version, status, truncate(strings.TrimRight(output, "\n"), maxOutputLength)),
		Options: []helpscot.AnswerOption{helpscot.AnswerInChannel()}}
}

// stripCodeFence removes the markdown code fence surrounding code, if any
func stripCodeFence(code string) string {
	c := strings.TrimSpace(code)
	if !strings.HasPrefix(c, "```") || !strings.HasSuffix(c, "```") || len(c) < 6 {
		return c
	}

	return strings.TrimSpace(c[3 : len(c)-3])
}

func formatLanguages(runtimes []sandbox.Runtime) string {
	languages := make([]string, 0, len(runtimes))
	seen := make(map[string]bool)
	for _, rt := range runtimes {
		if !seen[rt.Language] {
			seen[rt.Language] = true
			languages = append(languages, fmt.Sprintf("`%s`", rt.Language))
		}
	}
	sort.Strings(languages)

	return strings.Join(languages, ", ")
}
