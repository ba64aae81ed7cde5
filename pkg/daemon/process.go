package daemon

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// process supervises the worker and forwards its output.
type process struct {
	cmd     *exec.Cmd
	logs    sync.WaitGroup
	exited  chan struct{}
	waitErr error
	killed  atomic.Bool
}

type portLine struct {
	line string
	err  error
}

// launch starts cmd and returns once the worker has announced its port.
func launch(ctx context.Context, cmd *exec.Cmd, logger *slog.Logger, timeout time.Duration) (*process, string, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrProcessLaunch, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrProcessLaunch, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrProcessLaunch, err)
	}

	p := &process{cmd: cmd, exited: make(chan struct{})}
	announced := make(chan portLine, 1)

	p.logs.Add(2)
	go func() {
		defer p.logs.Done()
		forward(stderr, logger, "stderr", slog.LevelWarn)
	}()
	go func() {
		defer p.logs.Done()
		br := bufio.NewReader(stdout)
		line, err := br.ReadString('\n')
		announced <- portLine{line: line, err: err}
		if err != nil {
			_, _ = io.Copy(io.Discard, br)
			return
		}
		forward(br, logger, "stdout", slog.LevelInfo)
	}()
	go p.reap()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case a := <-announced:
		if a.err != nil {
			p.kill()
			return nil, "", fmt.Errorf("%w: worker exited before announcing its port: %w", ErrProcessLaunch, a.err)
		}
		port, err := parsePort(a.line)
		if err != nil {
			p.kill()
			return nil, "", err
		}
		return p, port, nil
	case <-timer.C:
		p.kill()
		return nil, "", fmt.Errorf("%w: no port announced within %s", ErrProcessLaunch, timeout)
	case <-ctx.Done():
		p.kill()
		return nil, "", fmt.Errorf("%w: %w", ErrProcessLaunch, ctx.Err())
	}
}

func parsePort(line string) (string, error) {
	s := strings.TrimSpace(line)
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil || n == 0 {
		return "", fmt.Errorf("%w: invalid port announcement %q", ErrProcessLaunch, s)
	}
	return strconv.FormatUint(n, 10), nil
}

// forward logs r line by line. Overlong lines end the scan; the rest of
// the stream is drained so the worker never blocks on a full pipe.
func forward(r io.Reader, logger *slog.Logger, stream string, level slog.Level) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		logger.Log(context.Background(), level, sc.Text(), "stream", stream)
	}
	if err := sc.Err(); err != nil {
		logger.Warn("worker output dropped", "stream", stream, "err", err)
	}
	_, _ = io.Copy(io.Discard, r)
}

// reap waits for the output forwarders before cmd.Wait, which closes the
// pipes they read from.
func (p *process) reap() {
	p.logs.Wait()
	p.waitErr = p.cmd.Wait()
	close(p.exited)
}

func (p *process) kill() {
	p.killed.Store(true)
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// stop waits for the worker to exit on its own, killing it after timeout.
func (p *process) stop(timeout time.Duration, logger *slog.Logger) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.exited:
	case <-timer.C:
		logger.Warn("daemon did not exit in time, killing it", "timeout", timeout)
		p.kill()
		select {
		case <-p.exited:
		case <-time.After(timeout):
			return fmt.Errorf("worker pid %d did not exit after kill", p.cmd.Process.Pid)
		}
	}

	if p.killed.Load() {
		return nil
	}
	if p.waitErr != nil {
		return fmt.Errorf("worker exited: %w", p.waitErr)
	}
	return nil
}
