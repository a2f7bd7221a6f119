package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	agent "github.com/FarhanAliRaza/Mardown-rs"
)

// retryPolicy bounds the retries of transport and rate limit failures.
type retryPolicy struct {
	attempts int
	base     time.Duration
	max      time.Duration
}

var defaultRetry = retryPolicy{attempts: 3, base: time.Second, max: 30 * time.Second}

// backOff doubles from base up to max without jitter.
func (p retryPolicy) backOff() *hintedBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.base
	exp.MaxInterval = p.max
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.Reset()
	return &hintedBackOff{BackOff: exp}
}

// hintedBackOff waits at least as long as the server's Retry-After hint
// for the failure it was last given.
type hintedBackOff struct {
	backoff.BackOff
	hint time.Duration
}

func (b *hintedBackOff) observe(err error) { b.hint = agent.RetryAfter(err) }

func (b *hintedBackOff) NextBackOff() time.Duration {
	d := b.BackOff.NextBackOff()
	if d != backoff.Stop && b.hint > d {
		d = b.hint
	}
	b.hint = 0
	return d
}

func retryable(err error) bool {
	return errors.Is(err, agent.ErrRateLimited) || errors.Is(err, agent.ErrTransport)
}

// repl reads prompts line by line and prints the agent's answers.
type repl struct {
	client *agent.Client
	label  string
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	retry  retryPolicy
	style  styles
}

// toolEcho prints every tool call the model requests.
func toolEcho(w io.Writer, st styles) agent.EventSink {
	return agent.SinkFuncs{
		Assistant: func(turn agent.Turn) {
			for _, call := range turn.ToolCalls() {
				args, _ := json.Marshal(call.Arguments)
				fmt.Fprintf(w, "%s: %s(%s)\n", st.tool.Render("tool"), call.Name, args)
			}
		},
	}
}

// run returns nil when the user quits, stdin ends or ctx is cancelled.
// Authentication failures, malformed responses and exhausted retries are
// returned.
func (r *repl) run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	lines, scanErr := scanLines(r.in, done)
	fmt.Fprintf(r.out, "Chat with %s (use 'exit' or ctrl-c to quit)\n", r.label)

	for {
		fmt.Fprintf(r.out, "%s: ", r.style.user.Render("You"))

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.out)
				return <-scanErr
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		text, err := r.ask(ctx, line)
		switch {
		case err == nil:
			fmt.Fprintf(r.out, "%s: %s\n", r.style.model.Render(r.label), text)
		case ctx.Err() != nil:
			fmt.Fprintln(r.out)
			return nil
		case errors.Is(err, agent.ErrRoundLimitExceeded), errors.Is(err, agent.ErrInvalidInput):
			fmt.Fprintln(r.errOut, r.style.err.Render("Error: "+err.Error()))
		default:
			return err
		}
	}
}

// ask sends one prompt and retries retryable failures through Resume, which
// continues from the transcript the failed call left behind.
func (r *repl) ask(ctx context.Context, prompt string) (string, error) {
	b := r.retry.backOff()
	attempt := 0
	op := func() (string, error) {
		var (
			text string
			err  error
		)
		if attempt == 0 {
			text, err = r.client.Query(ctx, prompt)
		} else {
			text, err = r.client.Resume(ctx)
		}
		attempt++
		if err != nil && !retryable(err) {
			return "", backoff.Permanent(err)
		}
		b.observe(err)
		return text, err
	}
	notify := func(err error, wait time.Duration) {
		fmt.Fprintln(r.errOut, r.style.warn.Render(fmt.Sprintf("%v; retrying in %s (%d/%d)", err, wait, attempt, r.retry.attempts)))
	}

	text, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.retry.attempts+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err != nil && retryable(err) {
		return "", fmt.Errorf("giving up after %d retries: %w", r.retry.attempts, err)
	}
	return text, err
}

// scanLines feeds lines from in until EOF or until done is closed. The error
// channel receives the scanner error, or nil, once the reader stops.
func scanLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				errc <- nil
				return
			}
		}
		errc <- sc.Err()
	}()
	return lines, errc
}
