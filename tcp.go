package trafficlight

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"regexp"
	"time"
)

var (
	DefaultTCPMaxBytes = 32 * 1024
)

type TCPActionConfig struct {
	Host               string `yaml:"host"`
	Port               string `yaml:"port"`
	Send               string `yaml:"send"`
	MaxBytes           int    `yaml:"max_bytes"`
	ExpectPattern      string `yaml:"expect_pattern"`
	TLS                bool   `yaml:"tls"`
	NoCheckCertificate bool   `yaml:"no_check_certificate"`
}

// TCPAction writes Send to a TCP endpoint per activation. When
// ExpectPattern is set the first read must match it.
type TCPAction struct {
	Address            string
	Send               string
	MaxBytes           int
	ExpectPattern      *regexp.Regexp
	Timeout            time.Duration
	TLS                bool
	NoCheckCertificate bool

	name string
}

func NewTCPAction(cfg *GateConfig) (*TCPAction, error) {
	p := &TCPAction{
		name:               cfg.Name,
		Address:            net.JoinHostPort(cfg.TCP.Host, cfg.TCP.Port),
		Send:               cfg.TCP.Send,
		MaxBytes:           cfg.TCP.MaxBytes,
		Timeout:            cfg.Timeout,
		TLS:                cfg.TCP.TLS,
		NoCheckCertificate: cfg.TCP.NoCheckCertificate,
	}
	if cfg.TCP.ExpectPattern != "" {
		pt, err := regexp.Compile(cfg.TCP.ExpectPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid expect_pattern: %w", err)
		}
		p.ExpectPattern = pt
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultActionTimeout
	}
	if p.MaxBytes == 0 {
		p.MaxBytes = DefaultTCPMaxBytes
	}
	return p, nil
}

func (p *TCPAction) Name() string {
	return p.name
}

func (p *TCPAction) Run(ctx context.Context) error {
	logger := newLoggerFromContext(ctx).With("name", p.name, "module", "tcpaction")
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	conn, err := dialTCP(ctx, p.Address, p.TLS, p.NoCheckCertificate, p.Timeout)
	if err != nil {
		return fmt.Errorf("tcp connect failed: %w", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(p.Timeout))
	logger.Debug("connected", "address", p.Address)

	if p.Send != "" {
		if _, err := io.WriteString(conn, p.Send); err != nil {
			return fmt.Errorf("tcp send failed: %w", err)
		}
	}
	if p.ExpectPattern == nil {
		return nil
	}
	buf := make([]byte, p.MaxBytes)
	n, err := conn.Read(buf)
	if err != nil {
		return fmt.Errorf("tcp read failed: %w", err)
	}
	logger.Debug("read", "bytes", n)
	if !p.ExpectPattern.Match(buf[:n]) {
		return fmt.Errorf("tcp unexpected response: %s", string(buf[:n]))
	}
	return nil
}

func dialTCP(ctx context.Context, address string, useTLS bool, noCheckCertificate bool, timeout time.Duration) (net.Conn, error) {
	d := &net.Dialer{Timeout: timeout}
	if useTLS {
		td := &tls.Dialer{
			NetDialer: d,
			Config: &tls.Config{
				InsecureSkipVerify: noCheckCertificate,
			},
		}
		return td.DialContext(ctx, "tcp", address)
	}
	return d.DialContext(ctx, "tcp", address)
}
