package ftp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	jftp "github.com/jlaffaye/ftp"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/bom-forecast-etl/internal/adapter/file"
	"github.com/couchcryptid/bom-forecast-etl/internal/config"
	"github.com/couchcryptid/bom-forecast-etl/internal/domain"
	"github.com/couchcryptid/bom-forecast-etl/internal/observability"
)

const anonymousUser = "anonymous"

// conn is the subset of an FTP control connection the fetcher needs.
type conn interface {
	Login(user, password string) error
	ChangeDir(path string) error
	FileSize(path string) (int64, error)
	Retr(path string) (io.ReadCloser, error)
	Quit() error
}

type dialFunc func(ctx context.Context, addr string, timeout time.Duration) (conn, error)

// Fetcher downloads the bulletin from an anonymous FTP server.
// It implements pipeline.Fetcher.
type Fetcher struct {
	addr      string
	dir       string
	filename  string
	localPath string
	timeout   time.Duration
	dial      dialFunc
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewFetcher creates a Fetcher for the configured server and bulletin.
func NewFetcher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		addr:      cfg.FTPAddr(),
		dir:       cfg.FTPDir,
		filename:  cfg.FTPFilename,
		localPath: cfg.XMLPath,
		timeout:   cfg.FTPTimeout,
		dial:      dialServer,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
		metrics:   metrics,
	}
}

// Fetch retrieves the bulletin in binary mode and replaces the local copy.
// Every failure is a *domain.TransferError; the previous local copy is only
// replaced after a complete transfer.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	start := f.clock.Now()

	c, err := f.dial(ctx, f.addr, f.timeout)
	if err != nil {
		return "", &domain.TransferError{Step: "dial", Err: err}
	}
	defer func() {
		if err := c.Quit(); err != nil {
			f.logger.Debug("ftp quit failed", "error", err)
		}
	}()

	if err := c.Login(anonymousUser, anonymousUser); err != nil {
		return "", &domain.TransferError{Step: "login", Err: err}
	}
	if err := c.ChangeDir(f.dir); err != nil {
		return "", &domain.TransferError{Step: "cwd", Err: fmt.Errorf("%s: %w", f.dir, err)}
	}

	// SIZE is optional on some servers; without it the length check is skipped.
	expected, err := c.FileSize(f.filename)
	if err != nil {
		f.logger.Debug("ftp size unavailable", "file", f.filename, "error", err)
		expected = -1
	}

	data, err := retrieve(c, f.filename)
	if err != nil {
		return "", &domain.TransferError{Step: "retr", Err: fmt.Errorf("%s: %w", f.filename, err)}
	}
	if expected >= 0 && int64(len(data)) != expected {
		return "", &domain.TransferError{
			Step: "verify",
			Err:  fmt.Errorf("%s: received %d of %d bytes", f.filename, len(data), expected),
		}
	}

	if _, err := file.WriteAtomic(f.localPath, bytes.NewReader(data)); err != nil {
		return "", &domain.TransferError{Step: "write", Err: err}
	}

	f.metrics.FetchBytes.Set(float64(len(data)))
	f.metrics.FetchDuration.Observe(f.clock.Since(start).Seconds())
	f.logger.Info("downloaded bulletin", "path", f.localPath, "bytes", len(data))
	return f.localPath, nil
}

// retrieve reads the whole file. Closing the data connection reads the
// server's final transfer status, so a close error means a short transfer.
func retrieve(c conn, name string) ([]byte, error) {
	r, err := c.Retr(name)
	if err != nil {
		return nil, err
	}
	data, readErr := io.ReadAll(r)
	closeErr := r.Close()
	if readErr != nil {
		return nil, readErr
	}
	if closeErr != nil {
		return nil, closeErr
	}
	return data, nil
}

// serverConn adapts *jftp.ServerConn to conn.
type serverConn struct {
	*jftp.ServerConn
}

func (s serverConn) Retr(path string) (io.ReadCloser, error) {
	resp, err := s.ServerConn.Retr(path)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func dialServer(ctx context.Context, addr string, timeout time.Duration) (conn, error) {
	c, err := jftp.Dial(addr, jftp.DialWithContext(ctx), jftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return serverConn{c}, nil
}
