package trafficlight

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/goccy/go-yaml"
)

const (
	DefaultActionTimeout = 5 * time.Second
)

type Config struct {
	Light *LightConfig  `yaml:"light"`
	Gates []*GateConfig `yaml:"gates"`
}

type GateConfig struct {
	Name    string        `yaml:"name"`
	WaitFor Phase         `yaml:"wait_for"`
	Count   int           `yaml:"count"`
	Timeout time.Duration `yaml:"timeout"`

	Command *CommandActionConfig `yaml:"command"`
	HTTP    *HTTPActionConfig    `yaml:"http"`
	TCP     *TCPActionConfig     `yaml:"tcp"`
}

func LoadConfig(ctx context.Context, src string) (*Config, error) {
	config := &Config{
		Light: &LightConfig{},
	}
	b, err := loadURL(ctx, src)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(b, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", src, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", src, err)
	}
	return config, nil
}

// Validate fills defaults and checks the config.
func (c *Config) Validate() error {
	if c.Light == nil {
		c.Light = &LightConfig{}
	}
	c.Light.setDefaults()
	if err := c.Light.validate(); err != nil {
		return fmt.Errorf("light: %w", err)
	}
	for i, g := range c.Gates {
		if g.Name == "" {
			g.Name = fmt.Sprintf("gate-%d", i)
		}
		g.setDefaults()
		if err := g.validate(); err != nil {
			return err
		}
	}
	return nil
}

func loadURL(ctx context.Context, s string) ([]byte, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", s, err)
	}
	switch u.Scheme {
	case "http", "https":
		return loadHTTP(ctx, u)
	case "file", "": // empty scheme is treated as file
		return os.ReadFile(u.Path)
	case "s3":
		return loadS3(ctx, u)
	default:
		return nil, fmt.Errorf("invalid url %s: scheme must be http, https, file, or s3", s)
	}
}

func loadHTTP(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("http get failed: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http get failed: %s %s", u, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func loadS3(ctx context.Context, u *url.URL) ([]byte, error) {
	awscfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	svc := s3.NewFromConfig(awscfg)
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	out, err := svc.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object failed: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (g *GateConfig) setDefaults() {
	if g.WaitFor == "" {
		g.WaitFor = PhaseGreen
	}
	if g.Timeout == 0 {
		g.Timeout = DefaultActionTimeout
	}
}

func (g *GateConfig) validate() error {
	if _, err := ParsePhase(string(g.WaitFor)); err != nil {
		return fmt.Errorf("gate %s: %w", g.Name, err)
	}
	if g.Timeout < 0 {
		return fmt.Errorf("gate %s: timeout must not be negative", g.Name)
	}
	if g.Count < 0 {
		return fmt.Errorf("gate %s: count must not be negative", g.Name)
	}
	if n := g.numofActions(); n != 1 {
		return fmt.Errorf("gate %s: exactly one of command, http or tcp is required, got %d", g.Name, n)
	}
	return nil
}

func (g *GateConfig) numofActions() int {
	n := 0
	if g.Command != nil {
		n++
	}
	if g.HTTP != nil {
		n++
	}
	if g.TCP != nil {
		n++
	}
	return n
}
