package action

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
)

var _ Destination = (*FTPDestination)(nil)

// FTPOptions configures the FTP backup destination.
type FTPOptions struct {
	Host       string
	Port       int
	Username   string
	Password   string
	BasePath   string
	Timeout    time.Duration // dial timeout, default 30s
	MaxRetries int           // default 3
}

// FTPDestination stores backups on an FTP server. Workers share one
// guarded control connection; a dead connection is redialed on the
// next use.
type FTPDestination struct {
	opts FTPOptions

	mu   sync.Mutex
	conn *ftp.ServerConn
}

// NewFTPDestination dials the server once to verify connectivity.
func NewFTPDestination(opts FTPOptions) (*FTPDestination, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("ftp host is required")
	}
	if opts.Port == 0 {
		opts.Port = 21
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}

	d := &FTPDestination{opts: opts}
	conn, err := d.dial()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to FTP server: %w", err)
	}
	d.conn = conn
	return d, nil
}

func (d *FTPDestination) dial() (*ftp.ServerConn, error) {
	addr := fmt.Sprintf("%s:%d", d.opts.Host, d.opts.Port)
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(d.opts.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}
	if err := conn.Login(d.opts.Username, d.opts.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	return conn, nil
}

// getConn returns a live connection, redialing when the cached one is
// dead. Caller must hold d.mu.
func (d *FTPDestination) getConn() (*ftp.ServerConn, error) {
	if d.conn != nil {
		if err := d.conn.NoOp(); err == nil {
			return d.conn, nil
		}
		d.conn.Quit()
		d.conn = nil
	}
	conn, err := d.dial()
	if err != nil {
		return nil, err
	}
	d.conn = conn
	return conn, nil
}

func (d *FTPDestination) Exists(ctx context.Context, filePath string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	conn, err := d.getConn()
	if err != nil {
		return false, err
	}
	full := path.Join(d.opts.BasePath, filePath)
	_, err = conn.FileSize(full)
	if err != nil {
		// The server answers 550 for missing files.
		if strings.Contains(err.Error(), "550") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *FTPDestination) Store(ctx context.Context, filePath string, data []byte) error {
	full := path.Join(d.opts.BasePath, filePath)

	var lastErr error
	for attempt := 0; attempt < d.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 200 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		d.mu.Lock()
		conn, err := d.getConn()
		if err != nil {
			d.mu.Unlock()
			lastErr = err
			continue
		}

		if dir := path.Dir(full); dir != "/" && dir != "." {
			if err := ensureDirectory(conn, dir); err != nil {
				d.mu.Unlock()
				lastErr = fmt.Errorf("failed to create directory %s: %w", dir, err)
				continue
			}
		}

		err = conn.Stor(full, bytes.NewReader(data))
		d.mu.Unlock()

		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("failed to store %s: %w", full, err)
	}

	return fmt.Errorf("store failed after %d attempts: %w", d.opts.MaxRetries, lastErr)
}

// ensureDirectory creates the directory structure recursively.
func ensureDirectory(conn *ftp.ServerConn, dirPath string) error {
	dirPath = path.Clean(dirPath)
	if dirPath == "/" || dirPath == "." {
		return nil
	}

	currentDir, err := conn.CurrentDir()
	if err != nil {
		return err
	}
	if err := conn.ChangeDir(dirPath); err == nil {
		// Directory exists.
		return conn.ChangeDir(currentDir)
	}

	currentPath := ""
	for _, part := range strings.Split(dirPath, "/") {
		if part == "" {
			continue
		}
		if currentPath == "" {
			currentPath = part
		} else {
			currentPath = path.Join(currentPath, part)
		}
		// Ignore "already exists" answers.
		conn.MakeDir(currentPath)
	}

	return conn.ChangeDir(currentDir)
}

func (d *FTPDestination) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		err := d.conn.Quit()
		d.conn = nil
		return err
	}
	return nil
}
