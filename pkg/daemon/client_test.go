package daemon

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	id   int32
	args []string
}

// fakeWorker is the worker side of a loopback session.
type fakeWorker struct {
	t    *testing.T
	conn net.Conn
}

// session connects a Client to a fakeWorker over a loopback TCP socket.
func session(t *testing.T, opts ...Option) (*Client, *fakeWorker) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	var server net.Conn
	select {
	case server = <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("accept timed out")
	}
	t.Cleanup(func() { server.Close() })

	c := newClient(conn, nil, opts...)
	t.Cleanup(func() { c.Close() })
	return c, &fakeWorker{t: t, conn: server}
}

func (w *fakeWorker) read() request {
	w.t.Helper()
	require.NoError(w.t, w.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	id, args, err := ReadRequest(w.conn)
	require.NoError(w.t, err)
	return request{id: id, args: args}
}

func (w *fakeWorker) complete(id int32, ok bool) {
	w.t.Helper()
	require.NoError(w.t, WriteCompletion(w.conn, id, ok))
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClient_CompletionsCorrelateByID(t *testing.T) {
	c, w := session(t)
	ctx := waitCtx(t)

	var handles []*Handle
	for i := 0; i < 3; i++ {
		h, err := c.Submit([]string{"task", fmt.Sprint(i)})
		require.NoError(t, err)
		handles = append(handles, h)
	}
	assert.Equal(t, []int32{1, 2, 3}, []int32{handles[0].ID(), handles[1].ID(), handles[2].ID()})

	for i := 0; i < 3; i++ {
		r := w.read()
		assert.Equal(t, int32(i+1), r.id)
		assert.Equal(t, []string{"task", fmt.Sprint(i)}, r.args)
	}

	w.complete(3, false)
	w.complete(1, true)
	w.complete(2, true)

	assert.NoError(t, handles[0].Wait(ctx))
	assert.NoError(t, handles[1].Wait(ctx))

	err := handles[2].Wait(ctx)
	require.ErrorIs(t, err, ErrRemoteTask)
	var remote *RemoteTaskError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, int32(3), remote.ID)
	assert.Zero(t, c.Pending())

	require.NoError(t, c.Close())
	r := w.read()
	assert.Equal(t, ShutdownID, r.id)
	assert.Nil(t, r.args)
}

func TestClient_ConcurrentSubmit(t *testing.T) {
	c, w := session(t)
	ctx := waitCtx(t)
	const n = 64

	received := make(chan request, n)
	go func() {
		for i := 0; i < n; i++ {
			id, args, err := ReadRequest(w.conn)
			if err != nil {
				return
			}
			received <- request{id: id, args: args}
			if err := WriteCompletion(w.conn, id, true); err != nil {
				return
			}
		}
	}()

	var wg sync.WaitGroup
	var mu sync.Mutex
	sent := make(map[int32][]string)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			args := []string{"job", fmt.Sprint(i), "with spaces", "ü"}
			h, err := c.Submit(args)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			sent[h.ID()] = args
			mu.Unlock()
			assert.NoError(t, h.Wait(ctx))
		}(i)
	}
	wg.Wait()

	require.Len(t, sent, n, "ids must be unique")
	for i := 0; i < n; i++ {
		r := <-received
		assert.Equal(t, sent[r.id], r.args, "request %d arrived intact", r.id)
	}
}

func TestClient_CloseFailsPending(t *testing.T) {
	c, w := session(t)

	h, err := c.Submit([]string{"slow"})
	require.NoError(t, err)
	w.read()

	require.NoError(t, c.Close())
	assert.ErrorIs(t, h.Wait(waitCtx(t)), ErrShuttingDown)
	assert.Equal(t, ShutdownID, w.read().id)

	_, err = c.Submit([]string{"late"})
	assert.ErrorIs(t, err, ErrListenerClosed)

	require.NoError(t, w.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, err := w.conn.Read(make([]byte, 1))
	assert.Zero(t, n, "nothing may follow the shutdown sentinel")
	assert.ErrorIs(t, err, io.EOF)

	assert.NoError(t, c.Close(), "Close is idempotent")
	assert.NoError(t, c.Err(), "an orderly close is not a session failure")
	select {
	case <-c.Done():
	default:
		t.Fatal("listener still running after Close")
	}
}

func TestClient_ProtocolViolationIsFatal(t *testing.T) {
	c, w := session(t)

	h1, err := c.Submit([]string{"a"})
	require.NoError(t, err)
	h2, err := c.Submit([]string{"b"})
	require.NoError(t, err)
	w.read()
	w.read()

	w.complete(1, true)
	_, err = w.conn.Write([]byte{0, 0})
	require.NoError(t, err)
	require.NoError(t, w.conn.Close())

	ctx := waitCtx(t)
	assert.NoError(t, h1.Wait(ctx))
	assert.ErrorIs(t, h2.Wait(ctx), ErrProtocol)

	select {
	case <-c.Done():
	case <-ctx.Done():
		t.Fatal("listener did not stop")
	}
	assert.ErrorIs(t, c.Err(), ErrProtocol)

	_, err = c.Submit([]string{"c"})
	assert.ErrorIs(t, err, ErrListenerClosed)
}

func TestClient_UnexpectedEOFIsFatal(t *testing.T) {
	c, w := session(t)

	h, err := c.Submit([]string{"a"})
	require.NoError(t, err)
	w.read()
	require.NoError(t, w.conn.Close())

	assert.ErrorIs(t, h.Wait(waitCtx(t)), ErrProtocol)
	<-c.Done()
	assert.Error(t, c.Err())
}

func TestClient_Hooks(t *testing.T) {
	var submitted, completed, failed atomic.Int32
	c, w := session(t, WithHooks(Hooks{
		OnSubmit: func(id int32, args []string) { submitted.Add(1) },
		OnComplete: func(id int32, err error, elapsed time.Duration) {
			completed.Add(1)
			if err != nil {
				failed.Add(1)
			}
		},
	}))
	ctx := waitCtx(t)

	go func() {
		for _, ok := range []bool{true, false} {
			id, _, err := ReadRequest(w.conn)
			if err != nil {
				return
			}
			if WriteCompletion(w.conn, id, ok) != nil {
				return
			}
		}
	}()

	assert.NoError(t, c.Run(ctx, []string{"one"}))
	assert.ErrorIs(t, c.Run(ctx, []string{"two"}), ErrRemoteTask)

	assert.Equal(t, int32(2), submitted.Load())
	assert.Equal(t, int32(2), completed.Load())
	assert.Equal(t, int32(1), failed.Load())
}

func TestClient_SubmitRacingCloseIsNotObserved(t *testing.T) {
	var submitted, completed atomic.Int32
	c, _ := session(t, WithHooks(Hooks{
		OnSubmit:   func(int32, []string) { submitted.Add(1) },
		OnComplete: func(int32, error, time.Duration) { completed.Add(1) },
	}))

	// Hold the writer so Submit registers its handle and then blocks.
	c.writeMu.Lock()
	result := make(chan error, 1)
	go func() {
		_, err := c.Submit([]string{"racing"})
		result <- err
	}()
	require.Eventually(t, func() bool { return c.Pending() == 1 }, 5*time.Second, time.Millisecond)

	require.True(t, c.shutdown(ErrShuttingDown, false))
	c.writeMu.Unlock()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrListenerClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Submit did not return")
	}
	assert.Zero(t, submitted.Load())
	assert.Zero(t, completed.Load())
}

func TestHandle_ResolvesOnce(t *testing.T) {
	h := newHandle(9, nil)
	assert.NoError(t, h.Err(), "unresolved handle")

	assert.True(t, h.resolve(nil))
	assert.False(t, h.resolve(ErrShuttingDown))
	assert.NoError(t, h.Wait(context.Background()))
	assert.NoError(t, h.Err())
}

func TestHandle_WaitHonoursContext(t *testing.T) {
	h := newHandle(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Wait(ctx), context.Canceled)
}
