package uplink

import (
	"context"
	"errors"
)

// FakeModem records power-key operations and scripts Flush.
type FakeModem struct {
	PowerOnErr  error
	PowerOffErr error
	FlushErr    error
	// FlushReads is what Flush reports as the number of reads that returned data.
	FlushReads int

	PowerOns  int
	PowerOffs int
	Resets    int
	Flushes   int
}

func (m *FakeModem) PowerOn() error {
	m.PowerOns++
	return m.PowerOnErr
}

func (m *FakeModem) PowerOff() error {
	m.PowerOffs++
	return m.PowerOffErr
}

func (m *FakeModem) Reset() error {
	m.Resets++
	return nil
}

func (m *FakeModem) Flush() (int, error) {
	m.Flushes++
	return m.FlushReads, m.FlushErr
}

// FakeSession consumes StartErrs one per Start call; nil or exhausted means success.
type FakeSession struct {
	StartErrs []error
	StopErr   error

	Starts int
	Aborts int
	Stops  int
}

func (s *FakeSession) Start(context.Context) error {
	s.Starts++
	if len(s.StartErrs) > 0 {
		err := s.StartErrs[0]
		s.StartErrs = s.StartErrs[1:]
		return err
	}
	return nil
}

func (s *FakeSession) Abort() error {
	s.Aborts++
	return nil
}

func (s *FakeSession) Stop() error {
	s.Stops++
	return s.StopErr
}

// FakeAPI records uploaded bodies.
type FakeAPI struct {
	Token     string
	LoginErr  error
	UploadErr error

	Logins int
	Bodies [][]byte
	Tokens []string
}

func (a *FakeAPI) Login(ctx context.Context) (string, error) {
	a.Logins++
	if a.LoginErr != nil {
		return "", a.LoginErr
	}
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("login without deadline")
	}
	return a.Token, nil
}

func (a *FakeAPI) Upload(ctx context.Context, token string, body []byte) error {
	if a.UploadErr != nil {
		return a.UploadErr
	}
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("upload without deadline")
	}
	a.Tokens = append(a.Tokens, token)
	a.Bodies = append(a.Bodies, body)
	return nil
}
