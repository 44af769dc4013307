package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	appLog "datecalc/internal/log"
)

// maxMessageSize bounds one newline-delimited message on stdin.
const maxMessageSize = 4 << 20

// ServeStdio reads newline-delimited JSON-RPC messages from in and writes
// responses and notifications to out, one JSON document per line. Requests
// are handled concurrently; writes are serialized. It returns when in is
// exhausted (after in-flight requests finish) or ctx is cancelled.
func ServeStdio(ctx context.Context, s *Server, in io.Reader, out io.Writer) error {
	session := uuid.NewString()
	appLog.Info("stdio session started", "session", session)

	var wmu sync.Mutex
	enc := json.NewEncoder(out)
	write := func(v any) {
		wmu.Lock()
		defer wmu.Unlock()
		if err := enc.Encode(v); err != nil {
			appLog.Error("stdio write failed", err, "session", session)
		}
	}

	unsubscribe := s.Subscribe(func(n Notification) { write(n) })
	defer unsubscribe()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		r := bufio.NewReaderSize(in, 64*1024)
		for {
			line, tooLong, err := readMessage(r)
			if tooLong {
				appLog.Warn("stdio message too large", "session", session, "limit", maxMessageSize)
				write(errorResponse(nil, CodeInvalidRequest,
					fmt.Sprintf("message exceeds %d bytes", maxMessageSize)))
			} else if len(line) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				readErr <- err
				close(lines)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			appLog.Info("stdio session cancelled", "session", session)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				err := <-readErr
				if err != nil {
					appLog.Error("stdio read failed", err, "session", session)
				} else {
					appLog.Info("stdio session ended", "session", session)
				}
				return err
			}
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if resp := s.HandleMessage(ctx, line); resp != nil {
					write(resp)
				}
			}()
		}
	}
}

// readMessage returns the next newline-terminated line without the
// terminator. A line longer than maxMessageSize is consumed and dropped,
// and tooLong is set. err is io.EOF once the input is exhausted; a final
// unterminated line is still returned with it.
func readMessage(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, rerr := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxMessageSize+1 {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(rerr, bufio.ErrBufferFull) {
			continue
		}
		return bytes.TrimSuffix(line, []byte("\n")), tooLong, rerr
	}
}
