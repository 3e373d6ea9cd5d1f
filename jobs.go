package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// jobRunner triggers a server-side job and returns its message.
type jobRunner func(ctx context.Context, path string, body map[string]any) (string, error)

type jobRequest struct {
	id       string
	title    string
	resource string
	path     string
	refresh  bool
}

type jobMsg interface{ isJobMsg() }

type jobStartedMsg struct {
	Job jobRequest
}

type jobFinishedMsg struct {
	Job      jobRequest
	Message  string
	Err      error
	Duration time.Duration
}

type jobChannelClosedMsg struct{}

func (jobStartedMsg) isJobMsg()       {}
func (jobFinishedMsg) isJobMsg()      {}
func (jobChannelClosedMsg) isJobMsg() {}

// jobManager runs remote jobs one at a time in enqueue order.
type jobManager struct {
	run     jobRunner
	ctx     context.Context
	queue   []jobRequest
	current *jobRequest
	started time.Time
	running bool
	ch      chan jobMsg
}

func newJobManager(ctx context.Context, run jobRunner) *jobManager {
	if ctx == nil {
		ctx = context.Background()
	}
	return &jobManager{run: run, ctx: ctx}
}

func (jm *jobManager) Enqueue(req jobRequest) tea.Cmd {
	jm.queue = append(jm.queue, req)
	return jm.nextCmd()
}

// Pending is the number of queued jobs not yet started.
func (jm *jobManager) Pending() int { return len(jm.queue) }

// Current returns the running job.
func (jm *jobManager) Current() (jobRequest, time.Time, bool) {
	if jm.current == nil {
		return jobRequest{}, time.Time{}, false
	}
	return *jm.current, jm.started, true
}

func (jm *jobManager) Handle(msg jobMsg) tea.Cmd {
	switch msg.(type) {
	case jobStartedMsg:
		jm.started = time.Now()
		return waitForJobMsg(jm.ch)
	case jobFinishedMsg, jobChannelClosedMsg:
		if !jm.running {
			return nil
		}
		jm.running = false
		jm.current = nil
		jm.ch = nil
		return jm.nextCmd()
	}
	return nil
}

func (jm *jobManager) nextCmd() tea.Cmd {
	if jm.running || len(jm.queue) == 0 {
		return nil
	}
	req := jm.queue[0]
	jm.queue = jm.queue[1:]
	jm.current = &req
	jm.running = true

	ch := make(chan jobMsg, 2)
	jm.ch = ch
	go runJob(jm.ctx, jm.run, req, ch)
	return waitForJobMsg(ch)
}

func runJob(ctx context.Context, run jobRunner, req jobRequest, ch chan<- jobMsg) {
	defer close(ch)
	ch <- jobStartedMsg{Job: req}

	start := time.Now()
	msg := jobFinishedMsg{Job: req}
	func() {
		defer func() {
			if r := recover(); r != nil {
				msg.Err = fmt.Errorf("job %s panicked: %v", req.id, r)
			}
		}()
		msg.Message, msg.Err = run(ctx, req.path, map[string]any{})
	}()
	msg.Duration = time.Since(start)
	ch <- msg
}

func waitForJobMsg(ch <-chan jobMsg) tea.Cmd {
	return func() tea.Msg {
		if ch == nil {
			return jobChannelClosedMsg{}
		}
		msg, ok := <-ch
		if !ok {
			return jobChannelClosedMsg{}
		}
		return msg
	}
}
