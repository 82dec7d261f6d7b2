// Package sshx is the remote execution channel: it runs an archiver
// tool on an SSH host and streams its stdout into a local writer (or
// feeds a local reader into its stdin). Stderr is captured on a
// separate channel so failures can be classified.
package sshx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/mongokit/mongokit/internal/config"
	"github.com/mongokit/mongokit/internal/errdefs"
)

type Client struct {
	DialTimeout time.Duration
}

func NewClient() *Client {
	return &Client{DialTimeout: 15 * time.Second}
}

// Execute runs `tool args` remotely and copies its stdout into out as
// it arrives. The copy is a plain io.Copy over the SSH channel, so
// backpressure propagates from the local write to the remote read and
// the archive is never buffered whole in memory. Returns once the
// remote process has exited 0 and out has consumed the full stream.
func (c *Client) Execute(ctx context.Context, creds config.SSHConfig, tool string, args []string, out io.Writer) error {
	return c.run(ctx, creds, tool, args, nil, out)
}

// ExecuteWithInput runs `tool args` remotely feeding in to its stdin.
// Used for restores, where the archive flows the other way.
func (c *Client) ExecuteWithInput(ctx context.Context, creds config.SSHConfig, tool string, args []string, in io.Reader) error {
	return c.run(ctx, creds, tool, args, in, io.Discard)
}

func (c *Client) run(ctx context.Context, creds config.SSHConfig, tool string, args []string, in io.Reader, out io.Writer) error {
	clientCfg, err := clientConfig(creds, c.DialTimeout)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(creds.Host, strconv.Itoa(creds.Port))

	dialer := net.Dialer{Timeout: c.DialTimeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &errdefs.SSHConnectionError{Host: creds.Host, Err: err}
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, clientCfg)
	if err != nil {
		netConn.Close()
		return &errdefs.SSHConnectionError{Host: creds.Host, Err: err}
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		return &errdefs.SSHConnectionError{Host: creds.Host, Err: err}
	}
	defer sess.Close()

	var stderr bytes.Buffer
	sess.Stderr = &stderr
	if in != nil {
		sess.Stdin = in
	}

	stdout, err := sess.StdoutPipe()
	if err != nil {
		return &errdefs.SSHConnectionError{Host: creds.Host, Err: err}
	}

	cmdline := commandLine(tool, args)
	if err := sess.Start(cmdline); err != nil {
		return &errdefs.SSHConnectionError{Host: creds.Host, Err: err}
	}

	// Closing the client unblocks the copy and the wait when the
	// caller's deadline fires.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			client.Close()
		case <-done:
		}
	}()

	_, copyErr := io.Copy(out, stdout)
	waitErr := sess.Wait()

	// A fired deadline is reported like any other failed run, with the
	// attempted command line attached; the cause stays reachable for
	// errors.Is(err, context.DeadlineExceeded).
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &errdefs.ProcessExecutionError{
			CommandLine: cmdline,
			Stderr:      strings.TrimSpace(stderr.String()),
			Err:         ctxErr,
		}
	}

	if copyErr != nil {
		var pathErr *os.PathError
		if errors.As(copyErr, &pathErr) {
			return &errdefs.FileSystemError{Op: "write archive", Path: pathErr.Path, Err: copyErr}
		}
		return &errdefs.SSHConnectionError{Host: creds.Host, Err: copyErr}
	}

	if waitErr != nil {
		if _, ok := waitErr.(*ssh.ExitError); ok {
			return &errdefs.ProcessExecutionError{
				CommandLine: cmdline,
				Stderr:      strings.TrimSpace(stderr.String()),
				Err:         waitErr,
			}
		}
		return &errdefs.SSHConnectionError{Host: creds.Host, Err: waitErr}
	}

	return nil
}

func clientConfig(creds config.SSHConfig, timeout time.Duration) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	if creds.KeyFile != "" {
		key, err := os.ReadFile(creds.KeyFile)
		if err != nil {
			return nil, &errdefs.SSHConnectionError{Host: creds.Host, Err: err}
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, &errdefs.SSHConnectionError{Host: creds.Host, Err: err}
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if creds.Password != "" {
		auth = append(auth, ssh.Password(creds.Password))
	}
	if len(auth) == 0 {
		return nil, errdefs.Validationf("ssh host %s: no password or key configured", creds.Host)
	}

	hostKeys := ssh.InsecureIgnoreHostKey()
	if creds.KnownHostsFile != "" {
		cb, err := knownhosts.New(creds.KnownHostsFile)
		if err != nil {
			return nil, &errdefs.SSHConnectionError{Host: creds.Host, Err: err}
		}
		hostKeys = cb
	}

	return &ssh.ClientConfig{
		User:            creds.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	}, nil
}

// commandLine quotes each argument for the remote shell.
func commandLine(tool string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(tool))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$&|;<>()*?[]#~%") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
