package tunnel

import (
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/DjordjeVuckovic/student-sync/internal/apperr"
)

const dialTimeout = 15 * time.Second

type Config struct {
	// BastionAddr is the SSH host to authenticate against, host:22.
	BastionAddr string
	User        string
	KeyPath     string
	// RemoteAddr is the database endpoint as seen from the bastion.
	RemoteAddr string
}

// Forwarder is an SSH tunnel to a host that is not directly
// network-reachable: a local listener whose connections are forwarded
// to RemoteAddr through the bastion. It belongs to exactly one lease
// at a time and must be closed after the database handle using it.
type Forwarder struct {
	cfg      Config
	client   *ssh.Client
	listener net.Listener

	closeOnce sync.Once
	closeErr  error
}

// Open authenticates against the bastion with the configured key and
// starts forwarding. Any failure here is a TunnelError.
func Open(cfg Config) (*Forwarder, error) {
	key, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, apperr.NewTunnelWrap("read private key", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, apperr.NewTunnelWrap("parse private key", err)
	}

	sshCfg := &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		// The bastion is provisioned alongside this job; host key
		// pinning is not part of the deployment contract.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}

	client, err := ssh.Dial("tcp", cfg.BastionAddr, sshCfg)
	if err != nil {
		return nil, apperr.NewTunnelWrap("dial bastion", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = client.Close()
		return nil, apperr.NewTunnelWrap("listen on local port", err)
	}

	f := &Forwarder{
		cfg:      cfg,
		client:   client,
		listener: listener,
	}
	go f.serve()

	slog.Info("Tunnel established",
		"bastion", cfg.BastionAddr,
		"remote", cfg.RemoteAddr,
		"local", f.LocalAddr(),
	)

	return f, nil
}

// LocalAddr is the forwarded local endpoint, host:port.
func (f *Forwarder) LocalAddr() string {
	return f.listener.Addr().String()
}

func (f *Forwarder) serve() {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			// Listener closed; tunnel is shutting down.
			return
		}
		go f.forward(conn)
	}
}

func (f *Forwarder) forward(local net.Conn) {
	remote, err := f.client.Dial("tcp", f.cfg.RemoteAddr)
	if err != nil {
		slog.Error("Failed to open forwarded connection", "remote", f.cfg.RemoteAddr, "error", err)
		_ = local.Close()
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go pipe(&wg, remote, local)
	go pipe(&wg, local, remote)
	wg.Wait()

	_ = local.Close()
	_ = remote.Close()
}

func pipe(wg *sync.WaitGroup, dst io.WriteCloser, src io.Reader) {
	defer wg.Done()
	_, _ = io.Copy(dst, src)
	// Half-close so the peer's copy direction can finish.
	if cw, ok := dst.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
}

// Close tears the tunnel down: local listener first, then the SSH
// client, which also terminates in-flight forwarded connections.
// Safe to call more than once.
func (f *Forwarder) Close() error {
	f.closeOnce.Do(func() {
		lerr := f.listener.Close()
		cerr := f.client.Close()
		if lerr != nil {
			f.closeErr = lerr
			return
		}
		f.closeErr = cerr
	})
	return f.closeErr
}
